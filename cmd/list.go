// File: cmd/list.go
package cmd

import (
	"fmt"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/dashverify/internal/scripts"
	"github.com/xkilldash9x/dashverify/internal/verify"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// scriptInfo is the `list --json` view of a script.
type scriptInfo struct {
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	BaseURL         string           `json:"base_url"`
	Viewport        *verify.Viewport `json:"viewport,omitempty"`
	Steps           []string         `json:"steps"`
	Artifact        string           `json:"artifact"`
	FailureArtifact string           `json:"failure_artifact"`
}

func describe(s verify.Script) scriptInfo {
	info := scriptInfo{
		Name:            s.Name,
		Description:     s.Description,
		BaseURL:         s.BaseURL,
		Artifact:        s.Artifact,
		FailureArtifact: s.FailurePath(),
	}
	if !s.Viewport.IsZero() {
		vp := s.Viewport
		info.Viewport = &vp
	}
	if s.Login != nil {
		info.Steps = append(info.Steps, s.Login.Name())
	}
	for _, step := range s.Steps {
		info.Steps = append(info.Steps, step.Name())
	}
	return info
}

func newListCmd() *cobra.Command {
	var asJSON bool

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the built-in verification scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := scripts.All()
			out := cmd.OutOrStdout()

			if asJSON {
				infos := make([]scriptInfo, 0, len(all))
				for _, s := range all {
					infos = append(infos, describe(s))
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tORIGIN\tARTIFACT\tDESCRIPTION")
			for _, s := range all {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.BaseURL, s.Artifact, s.Description)
			}
			return tw.Flush()
		},
	}

	listCmd.Flags().BoolVar(&asJSON, "json", false, "print the scripts and their steps as JSON")
	return listCmd
}
