// Manual integration probe against a real Azure DevOps organization.
// Not part of the shipped binary; run with:
//
//	AZURE_DEVOPS_PAT=... go run ./cmd/probe https://dev.azure.com/myorg MyProject
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/zapdesk/zapdesk/internal/azdo"
	"github.com/zapdesk/zapdesk/internal/board"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: probe <organization-url> [project]")
	}
	orgURL := os.Args[1]

	client, err := azdo.New(orgURL)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	viewer, err := client.Viewer(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Authenticated as: %s\n\n", viewer)

	projects, err := client.ListProjects(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Projects (%d):\n", len(projects))
	for _, p := range projects {
		fmt.Printf("  %s: %s\n", p.ID, p.Name)
	}

	if len(projects) == 0 {
		return
	}

	project := projects[0].Name
	if len(os.Args) > 2 {
		project = os.Args[2]
	}
	fmt.Printf("\nUsing project: %s\n\n", project)

	states, err := client.GetStates(ctx, project, "Issue")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("States (%d):\n", len(states))
	for _, s := range states {
		fmt.Printf("  - %s (category=%s, order=%d)\n", s.Name, s.Category, s.Order)
	}

	tickets, err := client.QueryTickets(ctx, project, azdo.SupportQuery("Issue", "support"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\nTickets (%d)\n", len(tickets))

	s := board.NewStore(nil)
	s.SetStates(states)
	s.SetTickets(tickets)

	columns, err := s.Columns()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("\nBoard:")
	for _, col := range columns {
		fmt.Printf("  %s (%d)\n", col.State, len(col.Tickets))
		for _, t := range col.Tickets {
			fmt.Printf("    #%d P%d %s\n", t.ID, t.Priority, t.Title)
		}
	}
}
