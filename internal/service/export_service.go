package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
)

const (
	exportMaxRows  = 10000
	historySheet   = "History"
	rosterProdID   = "-//Obedio//Crew Roster//EN"
	rosterCalName  = "Crew roster"
	xlsxTimeLayout = "2006-01-02 15:04:05"
)

// ExportService file exports for the crew office.
//
// Both exports return the rendered bytes plus a suggested filename; the
// handler sets the download headers.
type ExportService interface {
	// ExportHistory request history as an .xlsx workbook
	ExportHistory(ctx context.Context, req *dto.HistoryListRequest) (*bytes.Buffer, string, error)
	// ExportRoster assignments in [from, to] as an iCalendar feed
	ExportRoster(ctx context.Context, req *dto.AssignmentListRequest) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService creates an ExportService.
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ────────────────────── ExportHistory ──────────────────────

var historyHeaders = []string{
	"Closed at", "Request", "Action", "Previous status", "New status",
	"Type", "Priority", "Location", "Crew", "Response (s)", "Completion (s)",
}

func (s *exportService) ExportHistory(ctx context.Context, req *dto.HistoryListRequest) (*bytes.Buffer, string, error) {
	from, to, err := parseDateRange(req.From, req.To)
	if err != nil {
		return nil, "", err
	}

	rows, _, err := s.repo.History.List(ctx, repository.HistoryFilter{
		From:      from,
		To:        to,
		ActedByID: req.ActedByID,
		Limit:     exportMaxRows,
	})
	if err != nil {
		s.logger.Error("load history for export failed", zap.Error(err))
		return nil, "", persistenceErr(err)
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(historySheet)
	if err != nil {
		return nil, "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F3A5F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, h := range historyHeaders {
		f.SetCellValue(historySheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(historySheet, "A1", cell(colName(len(historyHeaders)-1), 1), headerStyle)
	f.SetColWidth(historySheet, "A", "A", 20)
	f.SetColWidth(historySheet, "B", "B", 38)
	f.SetColWidth(historySheet, "C", "I", 16)
	f.SetPanes(historySheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for i := range rows {
		h := &rows[i]
		values := []any{
			h.CreatedAt.UTC().Format(xlsxTimeLayout),
			h.RequestID,
			h.Action,
			string(h.PreviousStatus),
			string(h.NewStatus),
			string(h.RequestType),
			string(h.Priority),
			h.LocationName,
			h.ActedByName,
			intOrBlank(h.ResponseTimeSec),
			intOrBlank(h.CompletionTimeSec),
		}
		if err := f.SetSheetRow(historySheet, cell("A", i+2), &values); err != nil {
			return nil, "", fmt.Errorf("write history row: %w", err)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("render history workbook failed", zap.Error(err))
		return nil, "", fmt.Errorf("render workbook: %w", err)
	}

	s.logger.Info("history exported", zap.Int("rows", len(rows)))
	return buf, exportFilename("history", req.From, req.To, "xlsx"), nil
}

// ────────────────────── ExportRoster ──────────────────────

func (s *exportService) ExportRoster(ctx context.Context, req *dto.AssignmentListRequest) ([]byte, string, error) {
	filter, err := assignmentFilter(req.From, req.To)
	if err != nil {
		return nil, "", err
	}
	filter.CrewMemberID = req.CrewMemberID

	list, err := s.repo.Assignment.List(ctx, filter)
	if err != nil {
		s.logger.Error("load assignments for export failed", zap.Error(err))
		return nil, "", persistenceErr(err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(rosterProdID)
	cal.SetName(rosterCalName)

	stamp := time.Now().UTC()
	for i := range list {
		a := &list[i]
		if a.Shift == nil {
			continue
		}
		start, end, err := shiftWindow(a.Date, a.Shift)
		if err != nil {
			s.logger.Warn("skip assignment with malformed shift times",
				zap.String("assignment_id", a.AssignmentID), zap.Error(err))
			continue
		}

		crewName := a.CrewMemberID
		if a.CrewMember != nil {
			crewName = a.CrewMember.Name
		}

		evt := cal.AddEvent(a.AssignmentID + "@obedio")
		evt.SetDtStampTime(stamp)
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		evt.SetSummary(fmt.Sprintf("%s: %s (%s)", a.Shift.Name, crewName, a.Type))
		if a.Notes != "" {
			evt.SetDescription(a.Notes)
		}
	}

	return []byte(cal.Serialize()), exportFilename("roster", req.From, req.To, "ics"), nil
}

// shiftWindow absolute start/end of a shift on a roster date; an end at or
// before the start wraps into the next day.
func shiftWindow(date time.Time, sh *model.Shift) (time.Time, time.Time, error) {
	st, err := time.Parse(clockLayout, sh.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	et, err := time.Parse(clockLayout, sh.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	start := day.Add(time.Duration(st.Hour())*time.Hour + time.Duration(st.Minute())*time.Minute)
	end := day.Add(time.Duration(et.Hour())*time.Hour + time.Duration(et.Minute())*time.Minute)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// ── helpers ──

func exportFilename(kind, from, to, ext string) string {
	switch {
	case from != "" && to != "":
		return fmt.Sprintf("%s_%s_%s.%s", kind, from, to, ext)
	case from != "":
		return fmt.Sprintf("%s_from_%s.%s", kind, from, ext)
	case to != "":
		return fmt.Sprintf("%s_until_%s.%s", kind, to, ext)
	}
	return kind + "." + ext
}

func intOrBlank(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
