package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/adaptive-trivia/internal/predictor"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the difficulty model and save it",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			return fmt.Errorf("--out is required")
		}

		trainCfg := predictor.DefaultTrainConfig()
		if epochs, _ := cmd.Flags().GetInt("epochs"); epochs > 0 {
			trainCfg.Epochs = epochs
		}
		trainCfg.InitSeed, _ = cmd.Flags().GetInt64("seed")

		started := time.Now()
		model, loss, err := predictor.Train(trainCfg)
		if err != nil {
			return fmt.Errorf("train model: %w", err)
		}
		if err := predictor.Save(model, out); err != nil {
			return fmt.Errorf("save model: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Model trained in %v (%d epochs, MSE %.5f), saved to %s\n",
			time.Since(started).Round(time.Millisecond), trainCfg.Epochs, loss, out)
		for _, sample := range [][3]float64{{1, 2, 1}, {0.5, 10, 2}, {0, 15, 3}} {
			fmt.Fprintf(cmd.OutOrStdout(), "  accuracy=%.1f reaction=%.0fs attempts=%.0f -> difficulty %.3f\n",
				sample[0], sample[1], sample[2], model.Predict(sample[0], sample[1], sample[2]))
		}
		return nil
	},
}

func init() {
	trainCmd.Flags().String("out", "data/predictor.json", "Where to save the trained model")
	trainCmd.Flags().Int("epochs", 0, "Training epochs (default 50)")
	trainCmd.Flags().Int64("seed", 0, "Weight init seed; 0 means random")
}
