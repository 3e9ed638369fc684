package support

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// theErrorKindShouldBe verifies the stable error identifier reported by a
// failed render, either in the command error or in a JSON response.
func (testCtx *TestContext) theErrorKindShouldBe(kind string) error {
	if testCtx.LastError != nil && strings.HasPrefix(testCtx.LastError.Error(), kind+":") {
		return nil
	}
	if strings.Contains(testCtx.LastOutput, `"error_kind": "`+kind+`"`) {
		return nil
	}
	if strings.Contains(string(testCtx.LastHTTPResponse), `"error":"`+kind+`"`) ||
		strings.Contains(string(testCtx.LastHTTPResponse), `"error_kind":"`+kind+`"`) {
		return nil
	}
	return fmt.Errorf("error kind %q not reported\nError: %v\nOutput: %s\nResponse: %s",
		kind, testCtx.LastError, testCtx.LastOutput, testCtx.LastHTTPResponse)
}

func (testCtx *TestContext) theCommandShouldFailWithKind(kind string) error {
	if err := testCtx.theCommandShouldFail(); err != nil {
		return err
	}
	return testCtx.theErrorKindShouldBe(kind)
}

// RegisterErrorSteps registers error reporting steps.
func (testCtx *TestContext) RegisterErrorSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the error kind should be "([^"]*)"$`, testCtx.theErrorKindShouldBe)
	sc.Step(`^the command should fail with "([^"]*)"$`, testCtx.theCommandShouldFailWithKind)
}
