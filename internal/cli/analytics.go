package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/knowbot/internal/analytics"
)

func newAnalyticsCmd(e *env) *cobra.Command {
	var (
		rangeFlag string
		topics    int
		threads   string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show question analytics",
		Long: `Show what employees ask the Knowledge Bot.

Examples:
  knowbot analytics
  knowbot analytics --range 7d --topics 10
  knowbot analytics --threads 2 --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tr, err := analytics.ParseTimeRange(rangeFlag)
			if err != nil {
				return err
			}
			p := e.printer(cmd)

			if threads != "" {
				page, err := e.client.Threads(ctx, threads, tr, limit)
				if err != nil {
					return err
				}
				p.heading(fmt.Sprintf("Threads (%d of %d)", len(page.Items), page.Total))
				for _, t := range page.Items {
					p.printf("  %s  %s\n", formatMillis(t.Date), t.Title)
					p.printf("    %s\n", t.FirstMessage)
				}
				if page.HasMore {
					p.hint("more with --limit %d", page.NextLimit)
				}
				return nil
			}

			summary, err := e.client.AnalyticsSummary(ctx, tr)
			if err != nil {
				return err
			}
			p.heading(fmt.Sprintf("Questions (%s)", tr))
			p.printf("Total questions: %d\n", summary.TotalQuestions)
			p.printf("Unique topics:   %d\n", summary.UniqueTopics)
			if summary.TopCategory != "" {
				p.printf("Top category:    %s\n", summary.TopCategory)
			}

			topicPage, err := e.client.Topics(ctx, topics)
			if err != nil {
				return err
			}
			p.printf("\n")
			p.heading("Top topics")
			for _, t := range topicPage.Items {
				p.printf("  %-4s %-28s %4d  %s\n", t.ID, t.Topic, t.Count, trend(t))
			}
			if topicPage.HasMore {
				p.hint("more with --topics %d", topicPage.NextLimit)
			}

			qs, err := e.client.Questions(ctx, tr)
			if err != nil {
				return err
			}
			p.printf("\n")
			p.heading("Most asked")
			for _, q := range qs {
				p.printf("  %4d  %s  [%s]\n", q.Count, q.Question, q.Category)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&rangeFlag, "range", "r", string(analytics.DefaultTimeRange), "time range: 7d, 30d, 90d or all")
	cmd.Flags().IntVar(&topics, "topics", analytics.PageStep, "number of topics to show")
	cmd.Flags().StringVar(&threads, "threads", "", "show conversation threads of a topic ID")
	cmd.Flags().IntVar(&limit, "limit", analytics.PageStep, "number of threads to show")
	return cmd
}

func trend(t analytics.Topic) string {
	switch t.Trend {
	case analytics.TrendUp:
		return fmt.Sprintf("up %d%%", t.Change)
	case analytics.TrendDown:
		return fmt.Sprintf("down %d%%", -t.Change)
	default:
		return "stable"
	}
}
