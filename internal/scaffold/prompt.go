package scaffold

import (
	"github.com/manifoldco/promptui"
)

// confirmPrompt asks a yes/no question on the terminal. promptui returns an
// error for anything but an explicit yes, so declining is not a failure.
func confirmPrompt(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	return err == nil
}
