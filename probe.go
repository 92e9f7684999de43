package main

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"

	"github.com/imbrut/imbrut/proto"
)

func doInitProbe(ctx context.Context, checker proto.Checker, uri string) error {
	pterm.Info.Println("Performing initial probe.. 🛸")

	info, err := checker.Probe(ctx)
	if err != nil {
		return fmt.Errorf("initial probe failed: %w", err)
	}

	serverInfoList := []pterm.BulletListItem{
		{
			Level:       0,
			Text:        fmt.Sprintf("Target: %s (%s)", uri, checker.Kind()),
			BulletStyle: pterm.NewStyle(pterm.FgCyan),
		},
		{
			Level:       0,
			Text:        fmt.Sprintf("Unauthenticated status: %d", info.StatusCode),
			BulletStyle: pterm.NewStyle(pterm.FgCyan),
		},
	}

	if info.Server != "" {
		serverInfoList = append(serverInfoList, pterm.BulletListItem{
			Level:       0,
			Text:        fmt.Sprintf("Server: %s", info.Server),
			BulletStyle: pterm.NewStyle(pterm.FgCyan),
		})
	}

	if info.ContentType != "" {
		serverInfoList = append(serverInfoList, pterm.BulletListItem{
			Level:       0,
			Text:        fmt.Sprintf("Content type: %s", info.ContentType),
			BulletStyle: pterm.NewStyle(pterm.FgCyan),
		})
	}

	serverInfoList = append(serverInfoList, pterm.BulletListItem{
		Level:       0,
		Text:        fmt.Sprintf("Body size: %d bytes", info.BodySize),
		BulletStyle: pterm.NewStyle(pterm.FgCyan),
	})

	fmt.Println()
	pterm.DefaultBulletList.WithItems(serverInfoList).Render()

	// Without credentials nothing should look like a success
	if info.Outcome == proto.Accepted {
		pterm.Warning.Println("The unauthenticated probe already classifies as accepted, the success rules are probably too loose")
	}

	return nil
}
