package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"recipe-catalog/internal/core/ai/service"
	"recipe-catalog/internal/core/image"
	"recipe-catalog/internal/core/instagram"
	"recipe-catalog/internal/core/recipe"
	"recipe-catalog/internal/infrastructure/config"
	"recipe-catalog/internal/pkg/common"

	"github.com/spf13/cobra"
)

var extractMimeType string

// extractCmd 單次擷取，不啟動伺服器也不寫入目錄
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run a single extraction and print the JSON result",
	Long: `Run one extraction against the configured model providers.

Available subcommands:
  caption   - extract from caption text (argument or stdin)
  instagram - extract from an Instagram post URL
  photo     - recognize a handwritten recipe photo`,
}

var extractCaptionCmd = &cobra.Command{
	Use:   "caption [text]",
	Short: "Extract a recipe from caption text",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		caption := strings.Join(args, " ")
		if caption == "" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read caption: %w", err)
			}
			caption = string(data)
		}
		return runExtract(cmd, func(x *recipe.Extractor, _ *image.Service) (any, error) {
			return x.FromCaption(cmd.Context(), caption, "")
		})
	},
}

var extractInstagramCmd = &cobra.Command{
	Use:   "instagram [url]",
	Short: "Extract a recipe from an Instagram post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, func(x *recipe.Extractor, _ *image.Service) (any, error) {
			return x.FromInstagram(cmd.Context(), args[0])
		})
	},
}

var extractPhotoCmd = &cobra.Command{
	Use:   "photo [file]",
	Short: "Recognize a handwritten recipe photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read photo: %w", err)
		}
		return runExtract(cmd, func(x *recipe.Extractor, images *image.Service) (any, error) {
			photo, err := images.FromBytes(data, extractMimeType)
			if err != nil {
				return nil, err
			}
			return x.FromHandwritten(cmd.Context(), photo)
		})
	},
}

func init() {
	extractPhotoCmd.Flags().StringVar(&extractMimeType, "mime", "", "image MIME type (detected when empty)")
	extractCmd.AddCommand(extractCaptionCmd, extractInstagramCmd, extractPhotoCmd)
}

// runExtract 組裝擷取器（不使用快取）並輸出 JSON
func runExtract(cmd *cobra.Command, run func(*recipe.Extractor, *image.Service) (any, error)) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer common.Sync()

	ai, err := service.NewFromConfig(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer ai.Close()

	images := image.NewService(cfg.Image.MaxSizeBytes)
	extractor := newExtractor(cfg, ai, images)

	result, err := run(extractor, images)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

func newExtractor(cfg *config.Config, ai *service.Service, images *image.Service) *recipe.Extractor {
	return recipe.NewExtractor(ai.Text(), ai.Vision(), ai.OCR(), instagram.NewClient(&cfg.Instagram), images)
}
