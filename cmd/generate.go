// =============================================================================
// Nota Fiscal Generator - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, which builds one nota fiscal and
// writes it to the output directory.
//
// COMMAND USAGE:
//   nfgen generate [flags]
//
// ORDER SOURCES (first match wins):
//   1. --interactive : prompt for every field, pre-filled with defaults
//   2. --order       : YAML order file
//   3. defaults      : default CNPJs and address, --count installments
//
// INSTALLMENT SOURCES:
//   --installments takes a .csv or .xlsx file and replaces the installments
//   of whichever order source is used.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/config"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/converter"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/csvparser"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/form"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/nfe"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/types"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/xlsxparser"
	"github.com/ginjaninja78/nota-fiscal-generator/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	orderFile        string
	installmentsFile string
	interactive      bool
	outputDir        string
	sellerCNPJ       string
	buyerCNPJ        string
	installmentCount int
)

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a nota fiscal XML file",
	Long: `The generate command builds one NF-e document from the template and writes
it as generated_nota_fiscal_<number>.xml in the output directory.

Nothing is written when the order is invalid or the template lacks a
required element.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&orderFile, "order", "", "YAML order file")
	generateCmd.Flags().StringVar(&installmentsFile, "installments", "", "Installments file (.csv or .xlsx)")
	generateCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for every field")
	generateCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory (overrides output_dir)")
	generateCmd.Flags().StringVar(&sellerCNPJ, "seller-cnpj", form.DefaultSellerCNPJ, "Seller CNPJ")
	generateCmd.Flags().StringVar(&buyerCNPJ, "buyer-cnpj", form.DefaultBuyerCNPJ, "Buyer CNPJ")
	generateCmd.Flags().IntVar(&installmentCount, "count", 1, "Number of default installments when no other source is given")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runGenerate(cmd *cobra.Command) error {
	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	mainConfig, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()

	if outputDir != "" {
		if err := utils.EnsureDirectories(outputDir); err != nil {
			return err
		}
		mainConfig.OutputDir = outputDir
	}

	conv, err := converter.NewFromConfig(mainConfig, log)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: COLLECT ORDER
	// =========================================================================

	preset, err := loadInstallments(installmentsFile, mainConfig)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	order, err := collectOrder(ctx, cmd, preset)
	if err != nil {
		return err
	}
	log.Debug("order collected",
		zap.Int("installments", len(order.Installments)),
		zap.Bool("interactive", interactive),
	)

	// =========================================================================
	// STEP 3: GENERATE
	// =========================================================================

	result, err := conv.Run(order)
	if err != nil {
		return err
	}

	fmt.Println("=== Nota Fiscal Generated ===")
	fmt.Printf("File:          %s\n", result.OutputFile)
	fmt.Printf("Document Id:   %s\n", result.DocumentID)
	fmt.Printf("Installments:  %d\n", result.Stats.Installments)
	fmt.Printf("Total:         %s\n", nfe.FormatAmount(result.Total))
	fmt.Printf("Time elapsed:  %s\n", result.Stats.ProcessingTime)

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// loadInstallments reads installments from a CSV or XLSX file, picked by
// extension. An empty path returns nil.
func loadInstallments(path string, mainConfig *config.MainConfig) ([]types.Installment, error) {
	if path == "" {
		return nil, nil
	}
	if !utils.FileExists(path) {
		return nil, fmt.Errorf("installments file not found: %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return csvparser.Parse(path, mainConfig.CSV)
	case ".xlsx":
		return xlsxparser.Parse(path, mainConfig.XLSX)
	default:
		return nil, fmt.Errorf("unsupported installments file %s: want .csv or .xlsx", path)
	}
}

// collectOrder builds the order from the selected source.
func collectOrder(ctx context.Context, cmd *cobra.Command, preset []types.Installment) (*types.Order, error) {
	if interactive {
		return form.NewCollector(nil).Collect(ctx, preset)
	}

	if installmentCount < 0 {
		return nil, fmt.Errorf("invalid --count %d: must be zero or more", installmentCount)
	}

	var order *types.Order
	if orderFile != "" {
		loaded, err := form.LoadOrder(orderFile)
		if err != nil {
			return nil, err
		}
		order = loaded
	} else {
		order = &types.Order{
			BuyerAddress: form.DefaultAddress,
			Installments: form.DefaultInstallments(time.Now(), installmentCount),
		}
	}

	if orderFile == "" || cmd.Flags().Changed("seller-cnpj") {
		order.SellerCNPJ = sellerCNPJ
	}
	if orderFile == "" || cmd.Flags().Changed("buyer-cnpj") {
		order.BuyerCNPJ = buyerCNPJ
	}
	if preset != nil {
		order.Installments = preset
	}
	return order, nil
}
