package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// askYesNo prompts the user for a yes/no response
func askYesNo(in io.Reader, out io.Writer, prompt string) bool {
	reader := bufio.NewReader(in)
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	response, _ := reader.ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// askString prompts the user for a string input with a default
func askString(in io.Reader, out io.Writer, prompt, defaultVal string) string {
	reader := bufio.NewReader(in)
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", prompt)
	}
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(response)
	if response == "" {
		return defaultVal
	}
	return response
}
