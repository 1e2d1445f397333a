package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Widget is the presentation configuration handed to embedded widgets.
type Widget struct {
	Name        string   `yaml:"name" json:"name"`
	APIURL      string   `yaml:"apiUrl" json:"apiUrl"`
	LogoURL     string   `yaml:"logoUrl" json:"logoUrl"`
	Welcome     string   `yaml:"welcome" json:"welcome"`
	Placeholder string   `yaml:"placeholder" json:"placeholder"`
	Suggestions []string `yaml:"suggestions" json:"suggestions"`
}

// DefaultWidget returns the stock Fab City widget configuration.
func DefaultWidget() Widget {
	return Widget{
		Name:        "Fab City Assistant",
		APIURL:      "http://localhost:3001",
		LogoURL:     "https://fabcity-widget.onrender.com/fab-city-logo.png",
		Welcome:     "Welcome to Fab City",
		Placeholder: "Ask me anything about Fab City...",
		Suggestions: []string{
			"What is Fab City and how does it work?",
			"How can I get involved in local Fab City initiatives?",
			"What are the Fab City initiatives",
			"What are the key principles of Fab City?",
		},
	}
}

// LoadWidget reads the widget YAML at path. Fields the file leaves out keep
// their defaults; an empty path returns the defaults.
func LoadWidget(path string) (Widget, error) {
	w := DefaultWidget()
	if path == "" {
		return w, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("failed to read widget config: %w", err)
	}

	var file Widget
	if err := yaml.Unmarshal(data, &file); err != nil {
		return w, fmt.Errorf("failed to parse widget config %s: %w", path, err)
	}

	if file.Name != "" {
		w.Name = file.Name
	}
	if file.APIURL != "" {
		w.APIURL = file.APIURL
	}
	if file.LogoURL != "" {
		w.LogoURL = file.LogoURL
	}
	if file.Welcome != "" {
		w.Welcome = file.Welcome
	}
	if file.Placeholder != "" {
		w.Placeholder = file.Placeholder
	}
	if file.Suggestions != nil {
		w.Suggestions = file.Suggestions
	}

	if len(w.Suggestions) > 8 {
		return w, fmt.Errorf("widget config %s: at most 8 suggestions are shown, got %d", path, len(w.Suggestions))
	}
	return w, nil
}
