package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/darkfi-go/eventgraph/internal/idgen"
)

var tipsCmd = &cobra.Command{
	Use:   "tips",
	Short: "list the current unreferenced frontier (tip set)",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, closer, err := openGraphOffline()
		if err != nil {
			return err
		}
		defer closer()

		tips := g.Tips()

		if jsonOutput {
			ids := make([]string, len(tips))
			for i, id := range tips {
				ids[i] = id.String()
			}
			return json.NewEncoder(os.Stdout).Encode(ids)
		}
		for _, id := range tips {
			fmt.Println(idgen.ShortEvent(id), id.String())
		}
		return nil
	},
}
