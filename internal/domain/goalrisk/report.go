package goalrisk

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// TeamReport renders a live team dashboard as a PDF.
func (s *Service) TeamReport(ctx context.Context, tenantID, teamID string) ([]byte, error) {
	result, err := s.TeamDashboard(ctx, tenantID, teamID)
	if err != nil {
		return nil, err
	}
	return RenderTeamReport(result)
}

func RenderTeamReport(result MonitorResult) ([]byte, error) {
	dash := result.Dashboard
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	title := "Goal Risk Report"
	if dash.TeamName != "" {
		title += ": " + dash.TeamName
	}
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Generated: %s", dash.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Health score: %d", dash.HealthScore))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Average completion probability: %.1f%%", dash.AverageCompletionProbability))
	pdf.Ln(7)
	sum := dash.Summary
	pdf.Cell(0, 7, fmt.Sprintf("Goals: %d total, %d on track, %d at risk, %d high risk, %d critical",
		sum.Total, sum.OnTrack, sum.AtRisk, sum.HighRisk, sum.Critical))
	pdf.Ln(7)
	if dash.Trend != nil {
		pdf.Cell(0, 7, fmt.Sprintf("Since last run: %+d severe, %d recovered, %d escalated, velocity %s",
			dash.Trend.HighRiskDelta, dash.Trend.GoalsRecovered, dash.Trend.GoalsEscalated, dash.Trend.VelocityTrend))
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Top risks")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(80, 7, "Goal", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, "Level", "1", 0, "", false, 0, "")
	pdf.CellFormat(20, 7, "Score", "1", 0, "R", false, 0, "")
	pdf.CellFormat(25, 7, "Probability", "1", 0, "R", false, 0, "")
	pdf.CellFormat(20, 7, "Days", "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if len(dash.TopRisks) == 0 {
		pdf.CellFormat(175, 7, "No goals at risk", "1", 1, "", false, 0, "")
	}
	for _, a := range dash.TopRisks {
		pdf.CellFormat(80, 7, tr(truncate(a.GoalTitle, 45)), "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, string(a.RiskLevel), "1", 0, "", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%.1f", a.RiskScore), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%.1f%%", a.CompletionProbability), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", a.DaysUntilDeadline), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Recommendations")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
	for _, rec := range dash.Recommendations {
		pdf.MultiCell(0, 6, tr("- "+rec), "", "", false)
	}

	if len(result.Degraded) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, fmt.Sprintf("%d goals could not be fully assessed", len(result.Degraded)), "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}
