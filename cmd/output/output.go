// Package output provides functions to print messages with optional color formatting
package output

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oar-cd/shipyard/domain"
)

const (
	Plain   = color.FgWhite
	Success = color.FgGreen
	Warning = color.FgYellow
	Error   = color.FgRed
)

const timeFormat = "2006-01-02 15:04:05"

var maybeColorize func(kind color.Attribute, tmpl string, a ...any) string

// InitColors sets up color functions based on environment
func InitColors(isColorDisabled bool) {
	// Check if colors should be enabled
	if color.NoColor || isColorDisabled {
		// Fallback to plain formatting if colors are not supported
		maybeColorize = func(kind color.Attribute, tmpl string, a ...any) string {
			return fmt.Sprintf(tmpl, a...)
		}
	} else {
		// Enable colors
		maybeColorize = func(kind color.Attribute, tmpl string, a ...any) string {
			return color.New(kind).SprintfFunc()(tmpl, a...)
		}
	}
}

// PrintMessage formats a message with color (if enabled) and prints it
func PrintMessage(kind color.Attribute, tmpl string, a ...any) string {
	if maybeColorize == nil || kind == Plain {
		return fmt.Sprintf(tmpl+"\n", a...)
	}
	return fmt.Sprintln(maybeColorize(kind, tmpl, a...))
}

func fprint(cmd *cobra.Command, kind color.Attribute, tmpl string, a ...any) error {
	msg := fmt.Sprintf(tmpl, a...)
	if maybeColorize != nil && kind != Plain {
		msg = maybeColorize(kind, "%s", msg)
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), msg)
	return err
}

// FprintPlain writes an uncolored message to the command output
func FprintPlain(cmd *cobra.Command, tmpl string, a ...any) error {
	return fprint(cmd, Plain, tmpl, a...)
}

func FprintSuccess(cmd *cobra.Command, tmpl string, a ...any) error {
	return fprint(cmd, Success, tmpl, a...)
}

func FprintWarning(cmd *cobra.Command, tmpl string, a ...any) error {
	return fprint(cmd, Warning, tmpl, a...)
}

func FprintError(cmd *cobra.Command, tmpl string, a ...any) error {
	return fprint(cmd, Error, tmpl, a...)
}

func PrintTable(header []string, data [][]string) (string, error) {
	buf := strings.Builder{}

	table := tablewriter.NewTable(
		&buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines: tw.Lines{
					ShowHeaderLine: tw.Off,
				},
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{PerColumn: []tw.Align{tw.AlignRight, tw.AlignLeft}},
			},
		}))

	if len(header) > 0 {
		table.Header(header)
	}

	if err := table.Bulk(data); err != nil {
		return "", fmt.Errorf("bulk adding data to table: %w", err)
	}

	if err := table.Render(); err != nil {
		return "", fmt.Errorf("rendering table: %w", err)
	}

	return buf.String(), nil
}

func formatTechStack(items []domain.TechStackItem) string {
	if len(items) == 0 {
		return "-"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		line := fmt.Sprintf("%s (%s)", item.Name, item.Category)
		if item.Version != nil {
			line = fmt.Sprintf("%s %s (%s)", item.Name, *item.Version, item.Category)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func PrintProjectDetails(project *domain.Project, short bool) (string, error) {
	data := [][]string{
		{"ID", project.ID.String()},
		{"Name", project.Name},
		{"Status", project.Status.String()},
	}

	if !short {
		lastDeployed := "-"
		if project.LastDeployedAt != nil {
			lastDeployed = project.LastDeployedAt.Format(timeFormat)
		}
		data = append(data,
			[][]string{
				{"Owner", project.OwnerID.String()},
				{"Description", orDash(project.DescriptionStr())},
				{"Tech Stack", formatTechStack(project.TechStack)},
				{"Prompt", orDash(truncateString(project.PromptStr(), 200))},
				{"Generated Files", strconv.Itoa(len(project.GeneratedFiles))},
				{"Repository", orDash(project.GitHubRepoStr())},
				{"Deployment URL", orDash(project.DeploymentURLStr())},
				{"Version", strconv.Itoa(project.Version)},
				{"Last Deployed At", lastDeployed},
				{"Created At", project.CreatedAt.Format(timeFormat)},
				{"Updated At", project.UpdatedAt.Format(timeFormat)},
			}...,
		)
	}

	table, err := PrintTable([]string{}, data)
	if err != nil {
		return "", fmt.Errorf("printing project details table: %w", err)
	}
	return table, nil
}

func PrintProjectList(projects []*domain.Project) (string, error) {
	if len(projects) == 0 {
		return PrintMessage(Plain, "No projects found."), nil
	}

	header := []string{"ID", "Name", "Status", "Deployment URL", "Created At", "Updated At"}
	var data [][]string
	for _, project := range projects {
		data = append(data, []string{
			project.ID.String(),
			project.Name,
			project.Status.String(),
			orDash(project.DeploymentURLStr()),
			project.CreatedAt.Format(timeFormat),
			project.UpdatedAt.Format(timeFormat),
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing project list table: %w", err)
	}
	return table, nil
}

// PrintFileList lists generated file paths, sorted
func PrintFileList(files []domain.GeneratedFile) (string, error) {
	if len(files) == 0 {
		return PrintMessage(Plain, "No files generated."), nil
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	sort.Strings(paths)

	data := make([][]string, len(files))
	for i, path := range paths {
		data[i] = []string{strconv.Itoa(i + 1), path}
	}

	table, err := PrintTable([]string{}, data)
	if err != nil {
		return "", fmt.Errorf("printing file list table: %w", err)
	}
	return table, nil
}

func PrintGenerationList(generations []*domain.CodeGeneration) (string, error) {
	if len(generations) == 0 {
		return PrintMessage(Plain, "No generations found."), nil
	}

	header := []string{"ID", "Status", "Provider", "Model", "Files", "Tokens", "Created At", "Error"}
	var data [][]string
	for _, g := range generations {
		tokens := "-"
		if g.Usage != nil {
			tokens = strconv.Itoa(g.Usage.Total())
		}
		data = append(data, []string{
			g.ID.String(),
			g.Status.String(),
			g.Provider,
			orDash(g.Model),
			strconv.Itoa(len(g.Output)),
			tokens,
			g.CreatedAt.Format(timeFormat),
			orDash(truncateString(g.ErrorMessageStr(), 60)),
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing generation list table: %w", err)
	}
	return table, nil
}

func PrintDeploymentList(deployments []*domain.Deployment) (string, error) {
	if len(deployments) == 0 {
		return PrintMessage(Plain, "No deployments found."), nil
	}

	header := []string{"ID", "Status", "Provider", "URL", "Started At", "Error"}
	var data [][]string
	for _, d := range deployments {
		data = append(data, []string{
			d.ID.String(),
			d.Status.String(),
			d.Provider.String(),
			orDash(d.URLStr()),
			d.StartedAt.Format(timeFormat),
			orDash(truncateString(d.ErrorMessageStr(), 60)),
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing deployment list table: %w", err)
	}
	return table, nil
}

func PrintUserList(users []*domain.User) (string, error) {
	if len(users) == 0 {
		return PrintMessage(Plain, "No users found."), nil
	}

	header := []string{"ID", "Email", "Name", "Role", "Created At"}
	var data [][]string
	for _, u := range users {
		data = append(data, []string{
			u.ID.String(),
			u.Email,
			orDash(u.Name),
			string(u.Role),
			u.CreatedAt.Format(timeFormat),
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing user list table: %w", err)
	}
	return table, nil
}

// FormatCommitHash shortens a commit hash to eight characters
func FormatCommitHash(hash string) string {
	if hash == "" {
		return "-"
	}
	if len(hash) <= 8 {
		return hash
	}
	return hash[:8]
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return "..."
	}
	return s[:maxLength-3] + "..."
}

// MaskSensitiveValue hides the middle of a secret, keeping a short prefix and suffix
func MaskSensitiveValue(value string) string {
	switch n := len(value); {
	case n == 0:
		return "(not set)"
	case n <= 2:
		return strings.Repeat("*", n)
	case n <= 8:
		return value[:1] + strings.Repeat("*", n-2) + value[n-1:]
	default:
		return value[:3] + strings.Repeat("*", n-6) + value[n-3:]
	}
}

// CLI flag for disabling color output

// NoColor is a flag that can be used to disable colored output in the CLI.
var NoColor = &noColorFlag{set: false}

var _ pflag.Value = (*noColorFlag)(nil)

type noColorFlag struct {
	set bool
}

func (f *noColorFlag) Set(value string) error {
	// This is a boolean flag, so we ignore the value and just mark it as set
	f.set = true
	return nil
}

func (f *noColorFlag) String() string {
	if f.set {
		return "true"
	}
	return "false"
}

func (f *noColorFlag) Type() string {
	return "bool"
}

// IsSet returns true if the --no-color flag was explicitly set
func (f *noColorFlag) IsSet() bool {
	return f.set
}

// IsBoolFlag tells pflag this is a boolean flag (no argument required)
func (f *noColorFlag) IsBoolFlag() bool {
	return true
}
