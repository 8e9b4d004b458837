package commands

import (
	"errors"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// promptResource asks which registered schema to filter
func promptResource(names []string) (string, error) {
	if len(names) == 0 {
		return "", errors.New("no schemas are registered")
	}

	var resource string
	prompt := &survey.Select{
		Message: "Root resource:",
		Options: names,
	}
	if err := survey.AskOne(prompt, &resource); err != nil {
		return "", err
	}
	return resource, nil
}

// promptFilters reads key=value pairs until a blank answer
func promptFilters() ([]string, error) {
	var pairs []string
	for {
		var pair string
		prompt := &survey.Input{
			Message: "Filter (key=value, blank to finish):",
		}
		if err := survey.AskOne(prompt, &pair, survey.WithValidator(validPair)); err != nil {
			return nil, err
		}
		pair = strings.TrimSpace(pair)
		if pair == "" {
			return pairs, nil
		}
		pairs = append(pairs, pair)
	}
}

// validPair accepts blank input or anything with a non-empty key
func validPair(answer interface{}) error {
	s, _ := answer.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if key, _, ok := strings.Cut(s, "="); !ok || key == "" {
		return errors.New("expected key=value")
	}
	return nil
}
