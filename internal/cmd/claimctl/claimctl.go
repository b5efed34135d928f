// Package claimctl implements the operator CLI for the claims service.
package claimctl

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/louisbranch/reimburse/internal/claim"
	"github.com/louisbranch/reimburse/internal/claim/sheet"
	entrypoint "github.com/louisbranch/reimburse/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/reimburse/internal/platform/grpc"
	"github.com/louisbranch/reimburse/internal/platform/timeouts"
	"github.com/louisbranch/reimburse/internal/receipt"
	"github.com/louisbranch/reimburse/internal/services/claims/account"
	server "github.com/louisbranch/reimburse/internal/services/claims/app"
	"github.com/louisbranch/reimburse/internal/services/claims/storage/sqlite"
)

// Version is reported by the version command. Overridden at build time.
var Version = "dev"

// extraction is the JSON printed by the extract command.
type extraction struct {
	Category   string            `json:"category"`
	Merchant   string            `json:"merchant"`
	Amount     string            `json:"amount"`
	Date       string            `json:"date"`
	Confidence int               `json:"confidence"`
	Details    map[string]string `json:"details,omitempty"`
}

// NewRootCommand builds the claimctl command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           entrypoint.ServiceClaimctl,
		Short:         "Operate the travel reimbursement service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newExtractCommand(),
		newExportCommand(),
		newUserCommand(),
		newHealthCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", entrypoint.ServiceClaimctl, Version)
			},
		},
	)
	return cmd
}

func newExtractCommand() *cobra.Command {
	var policyPath, scriptPath, fileName string
	cmd := &cobra.Command{
		Use:   "extract <ocr-text-file>",
		Short: "Run receipt extraction on an OCR text file and print JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read receipt text: %w", err)
			}
			extractor, err := receipt.LoadExtractor(policyPath, scriptPath)
			if err != nil {
				return err
			}
			if strings.TrimSpace(fileName) == "" {
				fileName = filepath.Base(args[0])
			}
			result, err := extractor.Extract(cmd.Context(), receipt.Input{Text: string(text), FileName: fileName})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), extraction{
				Category:   result.Category.String(),
				Merchant:   result.Merchant,
				Amount:     result.Amount.StringFixed(2),
				Date:       result.Date,
				Confidence: result.Confidence,
				Details:    result.Details,
			})
		},
	}
	cmd.Flags().StringVar(&policyPath, "policies", "", "Receipt policy YAML file (default built-in policies)")
	cmd.Flags().StringVar(&scriptPath, "script", "", "Lua script that refines the result")
	cmd.Flags().StringVar(&fileName, "name", "", "File name hint used for category detection (default the input file name)")
	return cmd
}

func newExportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <claim.json>",
		Short: "Render a claim as a reimbursement spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read claim: %w", err)
			}
			var form claim.Claim
			if err := json.Unmarshal(data, &form); err != nil {
				return fmt.Errorf("decode claim: %w", err)
			}
			var company sheet.Company
			if err := entrypoint.ParseConfig(&company); err != nil {
				return err
			}
			buf, err := sheet.Render(form, sheet.Options{Company: company})
			if err != nil {
				return err
			}
			if strings.TrimSpace(output) == "" {
				output = sheet.Filename(form)
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write spreadsheet: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (grand total %s)\n", output, claim.FormatRupees(form.Totals().Grand))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default derived from employee name and period)")
	return cmd
}

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage employee accounts",
	}

	var dbPath string
	var in account.RegisterInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an employee account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Password == "" {
				in.Password = os.Getenv("REIMBURSE_USER_PASSWORD")
			}
			return addUser(cmd.Context(), cmd.OutOrStdout(), dbPath, in)
		},
	}
	add.Flags().StringVar(&dbPath, "db", "data/claims.db", "SQLite database path")
	add.Flags().StringVar(&in.EmployeeCode, "code", "", "Employee code")
	add.Flags().StringVar(&in.EmployeeName, "name", "", "Employee name")
	add.Flags().StringVar(&in.Designation, "designation", "", "Designation")
	add.Flags().StringVar(&in.Department, "department", "", "Department")
	add.Flags().StringVar(&in.Password, "password", "", "Password (default $REIMBURSE_USER_PASSWORD)")
	cmd.AddCommand(add)
	return cmd
}

func addUser(ctx context.Context, out io.Writer, dbPath string, in account.RegisterInput) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	store, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("open claims store: %w", err)
	}
	defer store.Close()

	// Create never issues a token, so any secret will do.
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}
	accounts, err := account.NewService(store, secret)
	if err != nil {
		return err
	}
	user, err := accounts.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created %s (%s) id=%s\n", user.EmployeeName, user.EmployeeCode, user.ID)
	return nil
}

func newHealthCommand() *cobra.Command {
	var addr, service string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the claims gRPC health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(addr) == "" {
				return fmt.Errorf("--addr is required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := platformgrpc.Probe(ctx, addr, service, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is SERVING\n", service)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", os.Getenv("REIMBURSE_GRPC_ADDR"), "gRPC health address")
	cmd.Flags().StringVar(&service, "service", server.HealthService, "Health service name")
	cmd.Flags().DurationVar(&timeout, "timeout", timeouts.HealthProbe, "How long to wait for SERVING")
	return cmd
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
