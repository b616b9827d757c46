package image

import (
	"fmt"
	"path"
	"strings"

	"github.com/Drmedkit/Bouw/internal/inject"
	"github.com/Drmedkit/Bouw/internal/lead"
)

const (
	heroAspectRatio    = "16:9"
	featureAspectRatio = "3:2"
)

var categoryScenes = map[string]string{
	lead.CategoryRestaurant:  "a beautifully plated dish and the dining room atmosphere",
	lead.CategoryNightlife:   "the bar and dance floor at night, lights and crowd energy",
	lead.CategoryOnlineStore: "styled product photography of the shop's goods",
	lead.CategoryOther:       "the workplace and the people behind the business",
}

var styleDirections = map[string]string{
	lead.StyleWarmElegant:  "warm golden light, rich textures, refined and inviting",
	lead.StyleDarkBold:     "deep shadows, high contrast, strong saturated accents",
	lead.StyleCleanMinimal: "bright natural light, generous negative space, muted palette",
	lead.StyleLoudElectric: "neon colours, motion, vivid magenta and cyan light",
	lead.StylePlayfulFun:   "cheerful colours, candid moments, lighthearted composition",
	lead.StyleRawEdgy:      "gritty textures, concrete and steel, documentary feel",
}

// BuildPrompt turns a lead record into the text-to-image prompt for role.
// The hero image sets the scene; the secondary image shows detail.
func BuildPrompt(role inject.Role, record lead.Record) string {
	var lines []string
	subject := strings.TrimSpace(record.Business)
	if subject == "" {
		subject = "a small business"
	}
	if role == inject.RolePrimary {
		lines = append(lines, fmt.Sprintf("Wide website hero photograph for %q.", subject))
	} else {
		lines = append(lines, fmt.Sprintf("Close-up detail photograph for the about section of %q's website.", subject))
	}

	scene, ok := categoryScenes[record.Category]
	if !ok {
		scene = categoryScenes[lead.CategoryOther]
	}
	lines = append(lines, "Show "+scene+".")
	if direction := styleDirections[record.Style]; direction != "" {
		lines = append(lines, "Visual direction: "+direction+".")
	}
	if offerings := strings.TrimSpace(record.Offerings); offerings != "" {
		lines = append(lines, fmt.Sprintf("Feature: %s.", offerings))
	}
	if location := strings.TrimSpace(record.Location); location != "" {
		lines = append(lines, fmt.Sprintf("Setting: %s.", location))
	}
	lines = append(lines, "No text, no logos, no watermark. Sharp focus, professional post-processing.")
	return strings.Join(lines, "\n")
}

// ForRole builds the generation request for role within job jobID.
func ForRole(role inject.Role, record lead.Record, jobID, locale string) Request {
	aspect := featureAspectRatio
	if role == inject.RolePrimary {
		aspect = heroAspectRatio
	}
	return Request{
		Prompt:      BuildPrompt(role, record),
		AspectRatio: aspect,
		Key:         path.Join("generated", "jobs", jobID, string(role)),
		RequestID:   jobID + "-" + string(role),
		Locale:      locale,
	}
}
