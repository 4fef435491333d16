package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"autoquote/internal/quotes/service"
	"autoquote/pkg/sanitizer"
	"autoquote/pkg/whatsapp"

	"github.com/spf13/cobra"
)

var errNotifyDisabled = errors.New("WHATSAPP_TOKEN, WHATSAPP_PHONE_ID and OWNER_PHONE must be set")

func newNotifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send one owner alert template message, to check the WhatsApp credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			detailsFile, _ := cmd.Flags().GetString("details-file")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			cfg, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			details := "Mensagem de teste"
			if detailsFile != "" {
				b, err := os.ReadFile(detailsFile)
				if err != nil {
					return fmt.Errorf("read %s: %w", detailsFile, err)
				}
				details = string(b)
			}

			tpl := whatsapp.BodyTemplate(
				cfg.WhatsApp.TemplateName,
				cfg.WhatsApp.TemplateLanguage,
				service.TemplateParams(cfg.Template, name, details)...,
			)

			out := cmd.OutOrStdout()
			if dryRun {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(tpl)
			}

			if !cfg.WhatsApp.Enabled() {
				return errNotifyDisabled
			}

			c, err := whatsapp.NewClient(whatsapp.Config{
				BaseURL:           cfg.WhatsApp.BaseURL,
				APIVersion:        cfg.WhatsApp.APIVersion,
				PhoneNumberID:     cfg.WhatsApp.PhoneNumberID,
				Token:             cfg.WhatsApp.Token,
				Timeout:           cfg.WhatsApp.Timeout,
				RequestsPerSecond: cfg.WhatsApp.RequestsPerSecond,
			}, cfg.Log)
			if err != nil {
				return err
			}

			resp, err := c.SendTemplate(cmd.Context(), cfg.WhatsApp.OwnerPhone, tpl)
			if err != nil {
				return fmt.Errorf("send template: %w", err)
			}

			cfg.Log.Info("Template sent", "to", sanitizer.MaskPhone(cfg.WhatsApp.OwnerPhone), "message_id", resp.MessageID())
			_, err = fmt.Fprintln(out, resp.MessageID())
			return err
		},
	}

	cmd.Flags().String("name", "", "Display name placed in the first template parameter")
	cmd.Flags().String("details-file", "", "File whose contents become the details parameter")
	cmd.Flags().Bool("dry-run", false, "Print the template instead of sending it")
	return cmd
}
