package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/fitness-funnel/internal/app/bootstrap"
	"github.com/wolfman30/fitness-funnel/internal/booking"
	"github.com/wolfman30/fitness-funnel/internal/catalog"
	appconfig "github.com/wolfman30/fitness-funnel/internal/config"
	"github.com/wolfman30/fitness-funnel/internal/funnel"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

func main() {
	mode := flag.String("mode", "", "override SUBMISSION_MODE (live or simulated)")
	target := flag.String("target", "", "override SUBMISSION_TARGET (relay or webhook)")
	flag.Parse()

	cfg := appconfig.Load()
	if *mode != "" {
		cfg.SubmissionMode = *mode
	}
	if *target != "" {
		cfg.SubmissionTarget = *target
	}
	logger := logging.New(cfg.LogLevel)

	submitter, err := bootstrap.BuildSubmitter(cfg, logger, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "email check: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rec := sampleRecord(time.Now(), cfg.AdminEmail)
	fmt.Println("Email delivery check")
	fmt.Printf("  mode:   %s\n", cfg.SubmissionMode)
	fmt.Printf("  target: %s\n", cfg.SubmissionTarget)
	fmt.Printf("  to:     %s\n", cfg.AdminEmail)

	start := time.Now()
	out := submitter.Send(ctx, rec)
	elapsed := time.Since(start).Round(time.Millisecond)
	if !out.Success {
		fmt.Printf("FAILED after %v (%s): %s\n", elapsed, out.Failure, out.Error)
		os.Exit(1)
	}
	fmt.Printf("OK after %v, submission %s\n", elapsed, rec.ID)
}

// sampleRecord is a complete submission with every question answered and
// an appointment dated today.
func sampleRecord(now time.Time, email string) funnel.SubmissionRecord {
	return funnel.SubmissionRecord{
		ID: uuid.NewString(),
		Questionnaire: funnel.Answers{
			"goal":           funnel.Scalar("weight-loss"),
			"experience":     funnel.Scalar("beginner"),
			"timeCommitment": funnel.Scalar("30-45min"),
			"equipment":      funnel.Scalar("basic"),
			"bodyType":       funnel.Scalar("ectomorph"),
			"age":            funnel.Scalar("26-35"),
			"gender":         funnel.Scalar("male"),
			"challenges":     funnel.MultiSelect("time", "motivation"),
		},
		SelectedPlan: catalog.PlanBasic,
		Appointment: booking.Appointment{
			Name:  "Test User",
			Email: email,
			Phone: "9876543210",
			Date:  now.Format(booking.DateLayout),
			Time:  "10:00 AM",
		},
		SubmittedAt: now,
	}
}
