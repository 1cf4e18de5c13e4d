package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/emenuapi/emenu-backend/metrics"
	"github.com/emenuapi/emenu-backend/models"
	"github.com/emenuapi/emenu-backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const ReportSubject = "Daily Dish Report"

//go:embed templates/dish_report.txt
var templateFS embed.FS

var dishReportTemplate = template.Must(
	template.New("dish_report.txt").
		Funcs(template.FuncMap{"price": utils.FormatPrice}).
		ParseFS(templateFS, "templates/dish_report.txt"),
)

// DishReport is the template context of the daily email.
type DishReport struct {
	Date          string
	NewDishes     []models.Dish
	UpdatedDishes []models.Dish
}

func (r DishReport) Empty() bool {
	return len(r.NewDishes) == 0 && len(r.UpdatedDishes) == 0
}

type ReportService struct {
	DB       *gorm.DB
	Mailer   Mailer
	From     string
	Location *time.Location
	Now      func() time.Time
}

func NewReportService(db *gorm.DB, mailer Mailer, from string, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{DB: db, Mailer: mailer, From: from, Location: loc, Now: time.Now}
}

// Yesterday returns the bounds [start, end) of the calendar date of
// now minus 24 hours in the configured location.
func (s *ReportService) Yesterday() (time.Time, time.Time) {
	y, m, d := s.Now().Add(-24 * time.Hour).In(s.Location).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, s.Location)
	return start, start.AddDate(0, 0, 1)
}

// Collect gathers dishes created and updated yesterday.
func (s *ReportService) Collect(ctx context.Context) (DishReport, error) {
	start, end := s.Yesterday()
	report := DishReport{Date: start.Format("2006-01-02")}

	db := s.DB.WithContext(ctx)
	if err := db.Where("created >= ? AND created < ?", start.UTC(), end.UTC()).
		Order("created ASC, id ASC").
		Find(&report.NewDishes).Error; err != nil {
		return report, fmt.Errorf("query new dishes: %w", err)
	}
	if err := db.Where("updated >= ? AND updated < ?", start.UTC(), end.UTC()).
		Order("updated ASC, id ASC").
		Find(&report.UpdatedDishes).Error; err != nil {
		return report, fmt.Errorf("query updated dishes: %w", err)
	}
	return report, nil
}

// Recipients lists emails of active users that have one.
func (s *ReportService) Recipients(ctx context.Context) ([]string, error) {
	var emails []string
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("is_active = ? AND email <> ?", true, "").
		Order("id ASC").
		Pluck("email", &emails).Error
	if err != nil {
		return nil, fmt.Errorf("query recipients: %w", err)
	}
	return emails, nil
}

func RenderDishReport(report DishReport) (string, error) {
	var buf bytes.Buffer
	if err := dishReportTemplate.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SendDishReport mails yesterday's new and updated dishes to every active
// user, one message per recipient, and returns how many were sent.
// Nothing to report, no sender and no recipients all yield 0 without error.
func (s *ReportService) SendDishReport(ctx context.Context) (int, error) {
	log := utils.InfoLogger.WithField("task", "dish_report")

	if s.From == "" {
		log.Info("FROM_EMAIL not configured, skipping dish report")
		return 0, nil
	}

	report, err := s.Collect(ctx)
	if err != nil {
		return 0, err
	}
	if report.Empty() {
		log.WithField("date", report.Date).Info("No new or updated dishes, skipping dish report")
		return 0, nil
	}

	recipients, err := s.Recipients(ctx)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		log.Info("No active users with an email address, skipping dish report")
		return 0, nil
	}

	body, err := RenderDishReport(report)
	if err != nil {
		return 0, fmt.Errorf("render dish report: %w", err)
	}

	sent := 0
	for _, to := range recipients {
		msg := Message{
			From:    s.From,
			To:      []string{to},
			Subject: ReportSubject,
			Body:    body,
		}
		if err := s.Mailer.Send(ctx, msg); err != nil {
			return sent, err
		}
		sent++
	}

	log.WithFields(logrus.Fields{
		"date":    report.Date,
		"new":     len(report.NewDishes),
		"updated": len(report.UpdatedDishes),
		"sent":    sent,
	}).Info("Dish report sent")
	return sent, nil
}

// Run is the queued-task entry point of the daily report.
func (s *ReportService) Run(ctx context.Context) error {
	sent, err := s.SendDishReport(ctx)
	switch {
	case err != nil:
		metrics.RecordReport(metrics.ReportFailed, sent)
		utils.ErrorLogger.WithError(err).WithField("sent", sent).Error("Dish report failed")
		return err
	case sent == 0:
		metrics.RecordReport(metrics.ReportSkipped, 0)
	default:
		metrics.RecordReport(metrics.ReportSent, sent)
	}
	return nil
}
