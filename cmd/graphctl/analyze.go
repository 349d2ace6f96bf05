package main

import (
	"fmt"
	"io"
	"strings"

	"kgview/domain/core/valueobjects"
	domainservices "kgview/domain/services"

	"github.com/spf13/cobra"
)

type analysisResult struct {
	Label      string                `json:"label"`
	Category   valueobjects.Category `json:"category"`
	KeyPhrases []string              `json:"keyPhrases"`
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Extract key phrases, category and label from free text",
		Long:  "Analyze the text given as arguments, or read it from stdin when no arguments are given.",
		Example: `  graphctl analyze "Breadth first search explores a graph level by level."
  cat notes.md | graphctl analyze --title notes_2024-graph-drawing.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read text: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("no text to analyze")
			}

			analyzer := domainservices.NewDefaultContentAnalyzer()
			labelSource := title
			if labelSource == "" {
				labelSource = text
			}
			phrases := analyzer.ExtractKeyPhrases(text)
			if phrases == nil {
				phrases = []string{}
			}
			return a.printJSON(analysisResult{
				Label:      analyzer.SanitizeLabel(labelSource),
				Category:   analyzer.CategorizeContent(text),
				KeyPhrases: phrases,
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "raw title, file name or URL to derive the label from")
	return cmd
}
