package commands

import (
	"errors"
	"fmt"
	"folio/internal/contact"
	"folio/internal/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// maxContactAttempts bounds the re-prompting of an interactive contact form
const maxContactAttempts = 3

var contactFields = []struct {
	name  string
	label string
}{
	{"name", "Your name"},
	{"email", "Your email"},
	{"subject", "Subject"},
	{"message", "Message"},
}

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Send a message through the contact form",
	Long: `Send a message to the portfolio owner. Missing fields are prompted for;
after a failed attempt the answers are kept and only the rejected fields are asked again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.start(ctx); err != nil {
			return err
		}

		form := contact.NewForm(a.client, a.logger)
		for _, f := range contactFields {
			value, _ := cmd.Flags().GetString(f.name)
			if value == "" && a.prompt.interactive() {
				value = a.prompt.ask(f.label, "")
			}
			form.Set(f.name, value)
		}

		out := cmd.OutOrStdout()
		for attempt := 1; ; attempt++ {
			err = form.Submit(ctx)
			if err == nil {
				break
			}
			if !a.prompt.interactive() || attempt == maxContactAttempts {
				return err
			}

			PrintError(out, err)
			if errors.Is(err, models.ErrValidation) {
				// ask again only for the fields that failed, keeping the rest
				values := form.Values()
				current := map[string]string{
					"name": values.Name, "email": values.Email,
					"subject": values.Subject, "message": values.Message,
				}
				failed := form.FieldErrors()
				for _, f := range contactFields {
					if _, ok := failed[f.name]; ok {
						form.Set(f.name, a.prompt.ask(f.label, current[f.name]))
					}
				}
				continue
			}

			retry, promptErr := a.prompt.confirm("Try sending again?")
			if promptErr != nil || !retry {
				return err
			}
		}

		color.New(color.FgGreen).Fprintln(out, "Thanks! Your message has been sent.")
		fmt.Fprintln(out, "You should hear back soon.")
		return nil
	},
}

func init() {
	contactCmd.Flags().String("name", "", "Your name")
	contactCmd.Flags().String("email", "", "Your email address")
	contactCmd.Flags().String("subject", "", "Message subject")
	contactCmd.Flags().String("message", "", "Message text")
}
