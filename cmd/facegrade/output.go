package main

import (
	"fmt"
	"time"

	"github.com/raine/facegrade/internal/analysis"
	"github.com/raine/facegrade/internal/analyzer"
)

// showProgress renders the orchestrator's progress observable until the
// returned stop function is called.
func showProgress(service *analyzer.Service) func() {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				fmt.Print("\r\033[K")
				return
			case <-ticker.C:
				state := service.State()
				if state.Busy {
					fmt.Printf("\ranalyzing... %d%%", state.Progress)
				}
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

func printResult(imageURI string, result *analysis.Result) {
	if imageURI != "" {
		fmt.Printf("\n%s\n", imageURI)
	} else {
		fmt.Println()
	}
	fmt.Printf("overall: %.1f (%s)  band %s\n", result.OverallScore, result.OverallRating, analysis.ScoreColor(result.OverallScore))

	for _, feature := range result.Features {
		fmt.Printf("  %s %-20s %.1f %-10s %s\n",
			analysis.FeatureIcon(feature.Name), feature.Name, feature.Score, feature.Rating,
			analysis.ScoreColor(feature.Score))
		if feature.FeedbackGood != "" {
			fmt.Printf("     + %s\n", feature.FeedbackGood)
		}
		if feature.FeedbackBad != "" {
			fmt.Printf("     - %s\n", feature.FeedbackBad)
		}
	}

	if len(result.Recommendations) > 0 {
		fmt.Println("recommendations:")
		for _, rec := range result.Recommendations {
			fmt.Printf("  [%s] %s: %s\n", rec.Category, rec.Title, rec.Description)
		}
	}
}
