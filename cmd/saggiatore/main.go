package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/briandowns/spinner"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/saggiatore/saggiatore-go/config"
	"github.com/saggiatore/saggiatore-go/engines"
	"github.com/saggiatore/saggiatore-go/evaluation"
	"github.com/saggiatore/saggiatore-go/loader"
	"github.com/saggiatore/saggiatore-go/models"
	"github.com/saggiatore/saggiatore-go/orchestrator"
	"github.com/saggiatore/saggiatore-go/reporting"
)

var (
	verbose bool
	dataDir string

	runModels        []string
	runScenarios     []string
	runCategory      string
	runGalileo       bool
	runNoGalileo     bool
	runOutputDir     string
	showConversation bool

	listCategory string
	showSession  int
)

var rootCmd = &cobra.Command{
	Use:   "saggiatore",
	Short: "An evaluation harness for immigration-assistance agents.",
	Long: `Saggiatore runs LLM agents through simulated immigration consultations,
scores the conversations with external scorers, and ranks the models on
a leaderboard.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run evaluation sessions and build the leaderboard.",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.Load()

		personas, toolDefs, scenarios, err := loader.LoadAll(dataDir)
		if err != nil {
			return err
		}
		scenarios, err = selectScenarios(scenarios, runScenarios, runCategory)
		if err != nil {
			return err
		}

		modelConfigs, err := selectModels(settings, runModels)
		if err != nil {
			return err
		}

		if settings.SimulatorModel != "" && settings.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY not configured (required for the simulator)")
		}
		simulator := engines.NewSimulatorEngine(settings.OpenAIAPIKey, settings.SimulatorModel)
		engine := orchestrator.NewEngine(toolDefs, simulator)

		var galileoClient *evaluation.GalileoClient
		if galileoEnabled(settings, runGalileo, runNoGalileo) {
			galileoClient = evaluation.NewGalileoClient(
				settings.GalileoAPIKey, settings.GalileoProject, settings.GalileoLogStream)
		} else {
			log.Warn("running without Galileo scoring: sessions will not be ranked")
		}

		runID := time.Now().Format("20060102_150405")
		log.Infof("starting run %s: %d models x %d scenarios",
			runID, len(modelConfigs), len(scenarios))

		ctx := cmd.Context()
		var results []*models.SessionResult
		for _, modelConfig := range modelConfigs {
			agent, err := engines.NewProviderEngine(
				modelConfig.Provider, modelConfig.APIModel, settings.KeyFor(modelConfig.EnvKey))
			if err != nil {
				return fmt.Errorf("failed to set up %s: %w", modelConfig.ModelID, err)
			}

			for _, scenario := range scenarios {
				persona := personas[scenario.PersonaIndex]

				s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				s.Suffix = fmt.Sprintf(" %s | %s", modelConfig.ModelID, scenario.Title)
				s.Start()
				result := engine.RunSession(scenario, persona, modelConfig, agent)
				s.Stop()

				if galileoClient != nil && result.Status == models.StatusCompleted {
					s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
					s.Suffix = " Waiting for Galileo scores..."
					s.Start()
					err := galileoClient.EvaluateSession(ctx, result)
					s.Stop()
					if err != nil {
						log.Warnf("galileo evaluation failed for %s: %s",
							modelConfig.ModelID, err.Error())
					}
				}
				results = append(results, result)

				if showConversation {
					fmt.Println(reporting.RenderSession(result))
				}
			}
		}

		leaderboard := reporting.NewLeaderboard()
		leaderboard.AddAll(results)
		entries := leaderboard.Rankings()
		fmt.Println(reporting.RenderLeaderboard(entries))

		exporter := reporting.NewExporter(runOutputDir, runID)
		written, err := exporter.WriteAll(results, entries)
		if err != nil {
			return err
		}
		for _, path := range written {
			fmt.Printf("Wrote %s\n", path)
		}

		syncClient := reporting.NewSyncClient(settings.ConvexIngestURL, settings.ConvexIngestToken)
		syncClient.SyncRun(ctx, runID, results, entries)
		return nil
	},
}

// selectScenarios narrows the scenario list by the -s / -c flags. The
// -s flag takes one or more indices, or "all" for everything.
func selectScenarios(scenarios []models.Scenario, indices []string, category string) ([]models.Scenario, error) {
	if len(indices) > 0 && !lo.Contains(indices, "all") {
		picked := make([]models.Scenario, 0, len(indices))
		seen := map[int]bool{}
		for _, raw := range indices {
			idx, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid scenario index %q", raw)
			}
			if idx < 0 || idx >= len(scenarios) {
				return nil, fmt.Errorf("scenario index %d out of range (0-%d)",
					idx, len(scenarios)-1)
			}
			if seen[idx] {
				continue
			}
			seen[idx] = true
			picked = append(picked, scenarios[idx])
		}
		return picked, nil
	}
	if category != "" {
		filtered := lo.Filter(scenarios, func(s models.Scenario, _ int) bool {
			return s.Category == category
		})
		if len(filtered) == 0 {
			return nil, fmt.Errorf("no scenarios in category %q", category)
		}
		return filtered, nil
	}
	return scenarios, nil
}

// selectModels narrows the registry by the -m flag, keeping only models
// whose API keys are configured.
func selectModels(settings *config.Settings, modelIDs []string) ([]models.ModelConfig, error) {
	available := config.AvailableModels(settings)
	if len(available) == 0 {
		return nil, fmt.Errorf("no models available: set at least one provider API key")
	}
	if len(modelIDs) == 0 {
		return available, nil
	}

	var selected []models.ModelConfig
	for _, modelID := range modelIDs {
		modelConfig, ok := config.ModelByID(modelID)
		if !ok {
			return nil, fmt.Errorf("unknown model: %s (see list-models)", modelID)
		}
		if settings.KeyFor(modelConfig.EnvKey) == "" {
			return nil, fmt.Errorf("%s requires %s to be set", modelID, modelConfig.EnvKey)
		}
		selected = append(selected, modelConfig)
	}
	return selected, nil
}

// galileoEnabled decides whether sessions get scored. A --galileo
// request without a configured key warns and runs unscored instead of
// aborting the run.
func galileoEnabled(settings *config.Settings, force, disable bool) bool {
	if disable {
		return false
	}
	if settings.GalileoConfigured() {
		return true
	}
	if force {
		log.Warn("GALILEO_API_KEY not configured, running without Galileo scoring")
	}
	return false
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard [RESULTS_DIR]",
	Short: "Rebuild the leaderboard from exported session results.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resultsDir := "results"
		if len(args) == 1 {
			resultsDir = args[0]
		}
		sessionsFile, err := latestSessionsFile(resultsDir)
		if err != nil {
			return err
		}
		log.Infof("loading results from %s", sessionsFile)

		results, err := reporting.LoadSessions(sessionsFile)
		if err != nil {
			return err
		}
		leaderboard := reporting.NewLeaderboard()
		leaderboard.AddAll(results)
		fmt.Println(reporting.RenderLeaderboard(leaderboard.Rankings()))
		return nil
	},
}

// latestSessionsFile finds the most recently modified *_sessions.json
// file in the results directory.
func latestSessionsFile(resultsDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(resultsDir, "*_sessions.json"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no session results found in %s", resultsDir)
	}
	newest := matches[0]
	newestMod := time.Time{}
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if info.ModTime().After(newestMod) {
			newest = match
			newestMod = info.ModTime()
		}
	}
	return newest, nil
}

var listPersonasCmd = &cobra.Command{
	Use:   "list-personas",
	Short: "List the immigration client personas.",
	RunE: func(cmd *cobra.Command, args []string) error {
		personas, err := loader.LoadPersonas(dataDir)
		if err != nil {
			return err
		}
		fmt.Println(reporting.RenderPersonas(personas))
		return nil
	},
}

var listScenariosCmd = &cobra.Command{
	Use:   "list-scenarios",
	Short: "List the evaluation scenarios.",
	RunE: func(cmd *cobra.Command, args []string) error {
		personas, _, scenarios, err := loader.LoadAll(dataDir)
		if err != nil {
			return err
		}
		if listCategory != "" {
			scenarios = lo.Filter(scenarios, func(s models.Scenario, _ int) bool {
				return s.Category == listCategory
			})
		}
		fmt.Println(reporting.RenderScenarios(scenarios, personas))
		return nil
	},
}

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List the model registry and key availability.",
	Run: func(cmd *cobra.Command, args []string) {
		settings := config.Load()
		availableIDs := map[string]bool{}
		for _, model := range config.AvailableModels(settings) {
			availableIDs[model.ModelID] = true
		}
		fmt.Println(reporting.RenderModels(config.DefaultModels, availableIDs))
	},
}

var showCmd = &cobra.Command{
	Use:   "show RESULTS_FILE",
	Short: "Show a session transcript from an exported results file.",
	Long: `Show a session transcript from an exported results file.
Displays the first session by default; pick another with --session N,
or pass --session -1 to print every session in the file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := reporting.LoadSessions(args[0])
		if err != nil {
			return err
		}
		picked, err := pickSessions(results, showSession)
		if err != nil {
			return err
		}
		for i, result := range picked {
			if len(picked) > 1 {
				fmt.Printf("=== Session %d ===\n", i)
			}
			fmt.Println(reporting.RenderSession(result))
			fmt.Println()
		}
		return nil
	},
}

// pickSessions resolves the --session flag: a non-negative index picks
// one session, a negative index selects all of them.
func pickSessions(results []*models.SessionResult, index int) ([]*models.SessionResult, error) {
	if index < 0 {
		return results, nil
	}
	if index >= len(results) {
		return nil, fmt.Errorf("session index %d out of range (0-%d)",
			index, len(results)-1)
	}
	return results[index : index+1], nil
}

var schemaTargets = map[string]any{
	"persona":  &models.Persona{},
	"tool":     &models.ToolDefinition{},
	"scenario": &models.Scenario{},
	"session":  &models.SessionResult{},
}

var schemaCmd = &cobra.Command{
	Use:   "schema TYPE",
	Short: "Print the JSON schema for a data record type.",
	Long: `Print the JSON schema for one of the data record types:
persona, tool, scenario, session. Useful for validating hand-edited
data files.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, ok := schemaTargets[args[0]]
		if !ok {
			return fmt.Errorf("unknown type %q (persona, tool, scenario, session)", args[0])
		}
		reflector := &jsonschema.Reflector{DoNotReference: true}
		schema := reflector.Reflect(target)
		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "directory with personas/tools/scenarios JSON files")

	runCmd.Flags().StringSliceVarP(&runModels, "model", "m", nil, "model IDs to evaluate (default: all available)")
	runCmd.Flags().StringSliceVarP(&runScenarios, "scenarios", "s", nil, `scenario indices to run, or "all" (default: all)`)
	runCmd.Flags().StringVarP(&runCategory, "category", "c", "", "run scenarios of one category")
	runCmd.Flags().BoolVar(&runGalileo, "galileo", false, "require Galileo scoring")
	runCmd.Flags().BoolVar(&runNoGalileo, "no-galileo", false, "skip Galileo scoring")
	runCmd.Flags().StringVarP(&runOutputDir, "output", "o", "results", "output directory for exported results")
	runCmd.Flags().BoolVar(&showConversation, "show-conversation", false, "print each transcript after its session")

	listScenariosCmd.Flags().StringVar(&listCategory, "category", "", "filter scenarios by category")
	showCmd.Flags().IntVar(&showSession, "session", 0, "session index to display (-1 for all)")
}

func main() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(listPersonasCmd)
	rootCmd.AddCommand(listScenariosCmd)
	rootCmd.AddCommand(listModelsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(schemaCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
