// Package main is the entry point for ploomer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/azyu/ploomer/internal/app"
	"github.com/azyu/ploomer/internal/commit"
	"github.com/azyu/ploomer/internal/creation"
	"github.com/azyu/ploomer/internal/library"
	"github.com/azyu/ploomer/internal/llm/adapters"
	"github.com/azyu/ploomer/internal/storage"
	"github.com/azyu/ploomer/internal/tui"
	"github.com/azyu/ploomer/internal/tui/views"
	"github.com/azyu/ploomer/pkg/types"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ploomer",
	Short: "Bedtime stories made with your child, in the terminal",
	Long: `Ploomer helps you create short illustrated stories for children.
Pick a hero, then chat with Ploomer, answer a few questions or start from a
template, and the story is saved to your local library.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine.
		_ = godotenv.Load()
	},
	SilenceUsage: true,
}

// newApp opens the application with the root flags applied.
func newApp(cmd *cobra.Command) (*app.App, error) {
	ephemeral, _ := cmd.Flags().GetBool("ephemeral")
	providerName, _ := cmd.Flags().GetString("provider")

	var opts []app.Option
	if ephemeral {
		opts = append(opts, app.WithBackend(storage.BackendMemory))
	}

	application, err := app.New(cmd.Context(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	application.UseProvider(providerName)
	return application, nil
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new story with the guided wizard",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer application.Close()

		wizard := views.NewWizard()
		if _, err := tea.NewProgram(wizard, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
			return fmt.Errorf("wizard failed: %w", err)
		}
		if !wizard.Completed() {
			fmt.Println("Story creation cancelled.")
			return nil
		}

		bag, err := wizard.Params()
		if err != nil {
			return err
		}
		params, err := creation.DecodeParams(bag)
		if err != nil {
			return err
		}
		return runStory(cmd.Context(), application, params)
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a story session from navigation parameters",
	Long: `Start a story session without the wizard. Parameters use the same keys
as the wizard hands to the chat screen, for example:

  ploomer chat --param heroType=girl --param heroName=Luna \
    --param storyTitle="Stars" --param mode=dialogue`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bag, _ := cmd.Flags().GetStringToString("param")

		params, err := creation.DecodeParams(bag)
		if err != nil {
			return err
		}

		application, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer application.Close()

		return runStory(cmd.Context(), application, params)
	},
}

// runStory drives the chat screen and follows the destination of the
// committed story.
func runStory(ctx context.Context, application *app.App, params types.CreationParameters) error {
	session, err := application.NewSession(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.Close()

	out, err := tui.Run(ctx, session, application.Resolver(), application.Global.Generation.AutoGenerateDelay)
	if errors.Is(err, tui.ErrAborted) {
		fmt.Println("Left without saving a story.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if out.Fallback {
		fmt.Println("⚠ Ploomer could not be reached, a simpler story was saved instead.")
	}
	fmt.Printf("✓ Saved %q (%s)\n", out.Story.Title, out.Story.ID)

	if out.Destination.Route == commit.RouteReader {
		story, ok := application.Library.Get(out.Destination.Params[commit.ParamStoryID])
		if !ok {
			return fmt.Errorf("%w: %s", library.ErrStoryNotFound, out.Destination.Params[commit.ParamStoryID])
		}
		return runReader(ctx, application, story)
	}

	fmt.Printf("Run 'ploomer read %s' to read it.\n", out.Story.ID)
	return nil
}

func runReader(ctx context.Context, application *app.App, story types.Story) error {
	r := views.NewReader(ctx, story, application.Library)
	if _, err := tea.NewProgram(r, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("reader failed: %w", err)
	}
	return nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stories in your library",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer application.Close()

		printStories(application.Library.Stories(), "No stories yet. Create one with: ploomer create")
		return nil
	},
}

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List your favorite stories",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer application.Close()

		printStories(application.Library.Favorites(), "No favorites yet. Mark one with: ploomer favorite <id>")
		return nil
	},
}

func printStories(stories []types.Story, empty string) {
	if len(stories) == 0 {
		fmt.Println(empty)
		return
	}

	fmt.Println("Stories:")
	for _, s := range stories {
		mark := " "
		if s.IsFavorite {
			mark = "♥"
		}
		fmt.Printf("  %s %s - %s, %d min (%s)\n", mark, s.Title, s.HeroName, s.ReadingTime, s.ID)
	}
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the library and open a story",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer application.Close()

		favoritesOnly, _ := cmd.Flags().GetBool("favorites")
		title, stories := "Your stories", application.Library.Stories()
		if favoritesOnly {
			title, stories = "Favorites", application.Library.Favorites()
		}

		ctx := cmd.Context()
		browser := views.NewLibrary(ctx, title, stories, application.Library)
		if _, err := tea.NewProgram(browser, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("library failed: %w", err)
		}

		story, ok := browser.Selected()
		if !ok {
			return nil
		}
		return runReader(ctx, application, story)
	},
}

var favoriteCmd = &cobra.Command{
	Use:   "favorite <id>",
	Short: "Toggle the favorite mark of a story",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer application.Close()

		story, err := application.Library.ToggleFavorite(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to update story: %w", err)
		}

		if story.IsFavorite {
			fmt.Printf("♥ %q added to favorites\n", story.Title)
		} else {
			fmt.Printf("%q removed from favorites\n", story.Title)
		}
		return nil
	},
}

var readCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Read a story page by page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer application.Close()

		story, ok := application.Library.Get(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", library.ErrStoryNotFound, args[0])
		}
		return runReader(cmd.Context(), application, story)
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates [query]",
	Short: "List the story templates",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		var query string
		if len(args) > 0 {
			query = args[0]
		}

		found := creation.FilterTemplates(query, category)
		if len(found) == 0 {
			fmt.Println("No templates match.")
			return nil
		}

		fmt.Println("Templates:")
		for _, t := range found {
			fmt.Printf("  - %s [%s, %s, %d min] (%s)\n", t.Title, t.Category, t.Difficulty, t.EstimatedTime, t.ID)
			fmt.Printf("    %s\n", t.Description)
		}
		return nil
	},
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in to your local Ploomer account",
	RunE:  runAuthCmd,
}

func runAuthCmd(cmd *cobra.Command, args []string) error {
	statusFlag, _ := cmd.Flags().GetBool("status")
	logoutFlag, _ := cmd.Flags().GetBool("logout")

	application, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := cmd.Context()
	switch {
	case logoutFlag:
		if err := application.Auth.Logout(ctx); err != nil {
			return fmt.Errorf("failed to log out: %w", err)
		}
		fmt.Println("Logged out.")
		return nil

	case statusFlag:
		user, err := application.Auth.Current(ctx)
		if errors.Is(err, app.ErrNotLoggedIn) {
			fmt.Println("Not logged in. Run 'ploomer auth' to sign in.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
		return nil
	}

	return interactiveLogin(ctx, application)
}

func interactiveLogin(ctx context.Context, application *app.App) error {
	var name, email string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Your name").
				Placeholder("optional").
				Value(&name),
			huh.NewInput().
				Title("Email").
				Placeholder("parent@example.com").
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return fmt.Errorf("enter an email address")
					}
					return nil
				}).
				Value(&email),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("login form failed: %w", err)
	}

	user, err := application.Auth.Login(ctx, name, email)
	if err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}

	fmt.Printf("\n✓ Welcome, %s!\n", user.Name)
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit the global configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		pathFlag, _ := cmd.Flags().GetBool("path")
		setupFlag, _ := cmd.Flags().GetBool("setup")
		removeFlag, _ := cmd.Flags().GetString("remove")

		cm, err := app.NewConfigManager()
		if err != nil {
			return err
		}

		switch {
		case pathFlag:
			fmt.Println(cm.Path())
			return nil
		case removeFlag != "":
			return removeProvider(cm, removeFlag)
		case setupFlag:
			return setupProvider(cm)
		}
		return showConfig(cm)
	},
}

func showConfig(cm *app.ConfigManager) error {
	config, err := cm.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("Config file: %s\n", cm.Path())
	fmt.Printf("Data dir:    %s\n", config.DataDir)
	fmt.Printf("Storage:     %s\n", config.Storage.Backend)
	fmt.Printf("Log level:   %s\n", config.Logging.Level)
	fmt.Printf("Auto generate after %s, requests time out after %s\n",
		config.Generation.AutoGenerateDelay, config.Generation.RequestTimeout)
	fmt.Println()

	fmt.Println("Providers:")
	for _, name := range adapters.Names() {
		providerConfig, exists := config.Providers[name]
		if !exists && name != config.Defaults.Provider {
			continue
		}

		defaultMark := ""
		if config.Defaults.Provider == name {
			defaultMark = " (default)"
		}
		fmt.Printf("  %s%s\n", name, defaultMark)

		if providerConfig == nil {
			continue
		}
		if providerConfig.APIKey != "" {
			fmt.Printf("    API Key: %s\n", maskAPIKey(providerConfig.APIKey))
		}
		if providerConfig.DefaultModel != "" {
			fmt.Printf("    Model: %s\n", providerConfig.DefaultModel)
		}
		if providerConfig.BaseURL != "" {
			fmt.Printf("    Base URL: %s\n", providerConfig.BaseURL)
		}
	}
	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func removeProvider(cm *app.ConfigManager, providerName string) error {
	config, err := cm.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, exists := config.Providers[providerName]; !exists {
		return fmt.Errorf("provider '%s' is not configured", providerName)
	}
	delete(config.Providers, providerName)

	if config.Defaults.Provider == providerName {
		config.Defaults.Provider = adapters.ProviderToolkit
	}

	if err := cm.SaveGlobalConfig(config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Provider '%s' removed.\n", providerName)
	return nil
}

func setupProvider(cm *app.ConfigManager) error {
	config, err := cm.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var providerName string
	selectForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select provider to configure").
				Options(
					huh.NewOption("Ploomer story service", adapters.ProviderToolkit),
					huh.NewOption("OpenAI", adapters.ProviderOpenAI),
					huh.NewOption("Google Gemini", adapters.ProviderGemini),
				).
				Value(&providerName),
		),
	)
	if err := selectForm.Run(); err != nil {
		return fmt.Errorf("provider selection failed: %w", err)
	}

	providerConfig := config.Providers[providerName]
	if providerConfig == nil {
		providerConfig = &types.ProviderConfig{}
	}

	currentKey := ""
	if providerConfig.APIKey != "" {
		currentKey = " (current: " + maskAPIKey(providerConfig.APIKey) + ")"
	}

	var apiKey, model, baseURL string
	setDefault := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API Key"+currentKey).
				Placeholder("leave empty to keep").
				Value(&apiKey),
			huh.NewInput().
				Title("Model").
				Placeholder(providerConfig.DefaultModel).
				Value(&model),
			huh.NewInput().
				Title("Base URL").
				Placeholder("leave empty for the default endpoint").
				Value(&baseURL),
			huh.NewConfirm().
				Title("Set as default provider?").
				Value(&setDefault),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("%s setup failed: %w", providerName, err)
	}

	if apiKey != "" {
		providerConfig.APIKey = apiKey
	}
	if model != "" {
		providerConfig.DefaultModel = model
	}
	if baseURL != "" {
		providerConfig.BaseURL = baseURL
	}
	config.Providers[providerName] = providerConfig
	if setDefault {
		config.Defaults.Provider = providerName
	}

	if err := cm.SaveGlobalConfig(config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("\n✓ %s configured successfully\n", providerName)
	return nil
}

func init() {
	rootCmd.PersistentFlags().Bool("ephemeral", false, "Keep stories in memory only")
	rootCmd.PersistentFlags().StringP("provider", "p", "", "Story provider to use (toolkit, openai, gemini)")

	chatCmd.Flags().StringToString("param", nil, "Creation parameter as key=value (repeatable)")

	browseCmd.Flags().Bool("favorites", false, "Only show favorite stories")

	templatesCmd.Flags().StringP("category", "c", creation.CategoryAll, "Template category")

	authCmd.Flags().BoolP("status", "s", false, "Show the signed in user")
	authCmd.Flags().Bool("logout", false, "Sign out")

	configCmd.Flags().Bool("path", false, "Print the config file path")
	configCmd.Flags().Bool("setup", false, "Configure a provider interactively")
	configCmd.Flags().StringP("remove", "r", "", "Remove a provider configuration")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(favoriteCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(configCmd)
}
