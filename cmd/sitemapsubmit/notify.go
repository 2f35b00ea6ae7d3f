package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sitemapsubmit/internal/sitemapsubmit"
)

var (
	notifyPageID      int64
	notifyPageURL     string
	notifyKind        string
	notifyTemplate    string
	notifyUnpublished bool
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Submit the sitemap for a changed page",
	Long: `Submit the sitemap to every configured endpoint for one page change.
With --kind the event is filtered the same way CMS events are; without it the
sitemap is submitted unconditionally.`,
	RunE: runNotify,
}

func init() {
	notifyCmd.Flags().Int64Var(&notifyPageID, "page-id", 0, "ID of the changed page")
	notifyCmd.Flags().StringVar(&notifyPageURL, "page-url", "", "URL path of the changed page")
	notifyCmd.Flags().StringVar(&notifyKind, "kind", "", "event kind: published, unpublished, saved, moved, restored, deleted")
	notifyCmd.Flags().StringVar(&notifyTemplate, "template", "", "template of the changed page")
	notifyCmd.Flags().BoolVar(&notifyUnpublished, "unpublished", false, "the page is unpublished")
	rootCmd.AddCommand(notifyCmd)
}

func runNotify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	var out sitemapsubmit.DispatchOutcome
	if notifyKind != "" {
		ev := sitemapsubmit.PageEvent{
			Kind:        sitemapsubmit.EventKind(notifyKind),
			PageID:      notifyPageID,
			PageURL:     notifyPageURL,
			Template:    notifyTemplate,
			Unpublished: notifyUnpublished,
		}
		var ok bool
		out, ok = svc.HandleEvent(ctx, ev)
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "event filtered, nothing submitted")
			return nil
		}
	} else {
		out = svc.Notify(ctx, notifyPageID, notifyPageURL)
	}

	w := cmd.OutOrStdout()
	if len(out.Results) > 0 {
		fmt.Fprintln(w, renderTable([]string{"Endpoint", "Status", "Result"}, resultRows(out.Results)))
	}
	if out.Warning != "" {
		fmt.Fprintln(w, "Warning:", out.Warning)
	}
	fmt.Fprintln(w, out.Message)
	return nil
}
