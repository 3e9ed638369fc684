package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MeKo-Tech/barcodegen/cmd/barcodegen/cmd"
	"github.com/cucumber/godog"
)

// splitArgs splits a command line on whitespace, keeping single- or
// double-quoted sections together. '' is an empty argument.
func splitArgs(command string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inArg   bool
	)
	for _, r := range command {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote, inArg = r, true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in %q", command)
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}

// iRunCommand executes a barcodegen command line in-process.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteVariables(command)
	testCtx.LastCommand = command

	args, err := splitArgs(command)
	if err != nil {
		return err
	}
	if len(args) == 0 || args[0] != "barcodegen" {
		return fmt.Errorf("unsupported command: %s", command)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var output bytes.Buffer
	root := cmd.NewRootCommand()
	root.SetOut(&output)
	root.SetErr(&output)
	root.SetArgs(args[1:])

	start := time.Now()
	err = root.ExecuteContext(ctx)
	testCtx.LastDuration = time.Since(start)
	testCtx.LastOutput = output.String()
	testCtx.LastError = err
	testCtx.LastExitCode = 0
	if err != nil {
		testCtx.LastExitCode = 1
		testCtx.LastOutput += "Error: " + err.Error() + "\n"
	}
	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldContain verifies the output contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	expectedText = testCtx.substituteVariables(expectedText)
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContainTimes(text string, n int) error {
	if got := strings.Count(testCtx.LastOutput, text); got != n {
		return fmt.Errorf("output contains '%s' %d times, want %d\nActual output: %s", text, got, n, testCtx.LastOutput)
	}
	return nil
}

// jsonPart returns the output from the first '{' or '['.
func (testCtx *TestContext) jsonPart() (string, error) {
	output := strings.TrimSpace(testCtx.LastOutput)
	if i := strings.IndexAny(output, "{["); i >= 0 {
		output = output[i:]
		if testCtx.LastError != nil {
			output = strings.TrimSpace(strings.TrimSuffix(output, "Error: "+testCtx.LastError.Error()))
		}
		return output, nil
	}
	return "", fmt.Errorf("no JSON found in output: %s", testCtx.LastOutput)
}

// theOutputShouldBeValidJSON verifies the output is valid JSON.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	part, err := testCtx.jsonPart()
	if err != nil {
		return err
	}
	var js json.RawMessage
	if err := json.Unmarshal([]byte(part), &js); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\nJSON part: %s", err, part)
	}
	return nil
}

// theJSONFieldShouldBe verifies a top-level string or number field.
func (testCtx *TestContext) theJSONFieldShouldBe(field, expected string) error {
	part, err := testCtx.jsonPart()
	if err != nil {
		return err
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(part), &data); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	val, ok := data[field]
	if !ok {
		return fmt.Errorf("field '%s' not found in JSON", field)
	}
	if got := fmt.Sprint(val); got != expected {
		return fmt.Errorf("field '%s' is %q, want %q", field, got, expected)
	}
	return nil
}

// theErrorShouldMention verifies the error message contains specific text.
func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("no error occurred, but expected error containing '%s'", errorText)
	}
	if !strings.Contains(strings.ToLower(testCtx.LastError.Error()), strings.ToLower(errorText)) {
		return fmt.Errorf("error does not contain '%s'\nActual error: %v", errorText, testCtx.LastError)
	}
	return nil
}

// theFileShouldExist verifies a file exists.
func (testCtx *TestContext) theFileShouldExist(filename string) error {
	if _, err := os.Stat(testCtx.Path(filename)); err != nil {
		return fmt.Errorf("file %s does not exist: %w", filename, err)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldNotExist(filename string) error {
	if _, err := os.Stat(testCtx.Path(filename)); err == nil {
		return fmt.Errorf("file %s exists", filename)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// theFileShouldContain verifies a file contains specific text.
func (testCtx *TestContext) theFileShouldContain(filename, expectedContent string) error {
	data, err := os.ReadFile(testCtx.Path(filename))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if !strings.Contains(string(data), expectedContent) {
		return fmt.Errorf("file %s does not contain '%s'\nContent: %s", filename, expectedContent, data)
	}
	return nil
}

func (testCtx *TestContext) theDirectoryShouldContainFiles(dir string, n int) error {
	entries, err := os.ReadDir(testCtx.Path(dir))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	if len(entries) != n {
		return fmt.Errorf("directory %s contains %d entries, want %d", dir, len(entries), n)
	}
	return nil
}

func (testCtx *TestContext) aFileWithContent(filename string, content *godog.DocString) error {
	return os.WriteFile(testCtx.Path(filename), []byte(content.Content+"\n"), 0o600)
}

func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	testCtx.SetEnv(name, testCtx.substituteVariables(value))
	return nil
}

// RegisterCommonSteps registers command execution and output steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should contain "([^"]*)" (\d+) times?$`, testCtx.theOutputShouldContainTimes)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should not exist$`, testCtx.theFileShouldNotExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the directory "([^"]*)" should contain (\d+) files?$`, testCtx.theDirectoryShouldContainFiles)
	sc.Step(`^a file "([^"]*)" with content:$`, testCtx.aFileWithContent)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
}
