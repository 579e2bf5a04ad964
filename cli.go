package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wansing/schemacms/core"
	"github.com/wansing/schemacms/seed"
	"golang.org/x/term"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage backend and API users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a user, the password is read from the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var userScopeCmd = &cobra.Command{
	Use:   "scope <name> <project> <scope>",
	Short: "Give a user a scope (content, schemas or connections) in a project",
	Args:  cobra.ExactArgs(3),
	RunE:  runUserScope,
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectAdd,
}

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Work with schema files",
}

var schemasCheckCmd = &cobra.Command{
	Use:   "check <dir>",
	Short: "Check that the schema files of a directory resolve together with the built-in schemas",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchemasCheck,
}

var (
	userAdmin    bool
	projectName  string
	projectEnvs  []string
	projectLangs []string
)

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userScopeCmd)

	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectAddCmd)

	rootCmd.AddCommand(schemasCmd)
	schemasCmd.AddCommand(schemasCheckCmd)

	userAddCmd.Flags().BoolVar(&userAdmin, "admin", false, "the user can do everything in every project")

	projectAddCmd.Flags().StringVar(&projectName, "name", "", "display name")
	projectAddCmd.Flags().StringSliceVar(&projectEnvs, "env", []string{"live"}, "environments, the first is the default")
	projectAddCmd.Flags().StringSliceVar(&projectLangs, "lang", []string{core.DefaultLanguage}, "language codes")
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // newline after password input
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}

func runUserAdd(cmd *cobra.Command, args []string) error {

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, sqlDB, _, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var name = args[0]

	pass1, err := promptPassword(fmt.Sprintf("password for user %s: ", name))
	if err != nil {
		return err
	}
	pass2, err := promptPassword("repeat password: ")
	if err != nil {
		return err
	}
	if pass1 != pass2 {
		return fmt.Errorf("passwords don't match")
	}

	user, err := db.AddUser(name, pass1, userAdmin)
	if err != nil {
		return err
	}
	fmt.Printf("created user %s (id %d)\n", user.Username, user.ID)
	return nil
}

func runUserScope(cmd *cobra.Command, args []string) error {

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, sqlDB, _, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := db.GrantScope(args[0], args[1], args[2]); err != nil {
		return err
	}
	fmt.Printf("user %s has scope %s in project %s\n", args[0], args[2], args[1])
	return nil
}

func runProjectAdd(cmd *cobra.Command, args []string) error {

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, sqlDB, _, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var project = &core.Project{
		ID:           strings.TrimSpace(args[0]),
		Name:         projectName,
		Environments: projectEnvs,
		Languages:    projectLangs,
	}
	if err := db.InsertProject(project); err != nil {
		return fmt.Errorf("creating project %s: %w", project.ID, err)
	}
	fmt.Printf("created project %s with environments %s\n", project.ID, strings.Join(project.Environments, ", "))
	return nil
}

func runSchemasCheck(cmd *cobra.Command, args []string) error {

	builtin, err := seed.Builtin()
	if err != nil {
		return err
	}
	custom, err := seed.LoadDir(args[0])
	if err != nil {
		return err
	}

	// custom schemas shadow built-in schemas
	var byID = make(map[string]*core.Schema)
	for _, schema := range append(builtin, custom...) {
		byID[schema.ID] = schema
	}
	var all = make([]*core.Schema, 0, len(byID))
	for _, schema := range byID {
		all = append(all, schema)
	}

	if err := seed.Check(all); err != nil {
		return err
	}
	fmt.Printf("%d schema files are fine\n", len(custom))
	return nil
}
