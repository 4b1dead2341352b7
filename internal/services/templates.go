package services

import (
	"time"

	"github.com/productcompass/compass/internal/models"
)

// DemoTemplateID names the built-in sample roadmap template.
const DemoTemplateID = "product-compass-demo"

// DemoRoadmapName is the roadmap created by the public demo route.
const DemoRoadmapName = "Product Compass Demo"

type templateFeature struct {
	Title       string
	Description string
	Priority    string
	Status      string
	Release     string
	OffsetDays  int
}

// demoTemplate is the deterministic feature catalog installed when a roadmap
// is created from the demo template. Dates are offsets from the creation day.
var demoTemplate = []templateFeature{
	{"Drag-and-Drop Interface", "Intuitive drag-and-drop interface for roadmap planning and task management.", models.PriorityHigh, models.StatusCompleted, "Core Features", 0},
	{"Timeline Views", "Multiple timeline views including monthly, quarterly, and sprint-based planning.", models.PriorityHigh, models.StatusCompleted, "Core Features", 0},
	{"Kanban Board", "Visual task management with customizable columns and drag-drop functionality.", models.PriorityHigh, models.StatusCompleted, "Core Features", 0},
	{"Gantt Chart Integration", "Interactive Gantt charts for timeline visualization and dependency mapping.", models.PriorityHigh, models.StatusInProgress, "Advanced Planning", 30},
	{"Team Collaboration", "Real-time collaboration features including comments, mentions, and notifications.", models.PriorityMedium, models.StatusInProgress, "Advanced Planning", 45},
	{"Resource Management", "Team workload tracking and resource allocation features.", models.PriorityMedium, models.StatusInProgress, "Advanced Planning", 60},
	{"Customer Feedback Portal", "Dedicated portal for collecting and organizing customer feedback and feature requests.", models.PriorityHigh, models.StatusPlanned, "Customer Insights", 90},
	{"Persona Builder", "Tools for creating and managing detailed customer personas.", models.PriorityMedium, models.StatusPlanned, "Customer Insights", 90},
	{"Analytics Dashboard", "Comprehensive analytics for tracking project progress and team performance.", models.PriorityMedium, models.StatusPlanned, "Customer Insights", 120},
	{"AI-Powered Insights", "Machine learning features for predictive planning and risk assessment.", models.PriorityLow, models.StatusPlanned, "Future Innovation", 150},
	{"Advanced Exports", "Enhanced export options including PDF, Excel, and presentation formats.", models.PriorityLow, models.StatusPlanned, "Future Innovation", 180},
}

// templateFeatures materialises a template into feature rows for a roadmap.
func templateFeatures(templateID, roadmapID string, now time.Time) []models.Feature {
	if templateID != DemoTemplateID {
		return nil
	}

	base := now.Truncate(24 * time.Hour)
	features := make([]models.Feature, 0, len(demoTemplate))
	for _, item := range demoTemplate {
		features = append(features, models.Feature{
			RoadmapID:   roadmapID,
			Title:       item.Title,
			Description: item.Description,
			Priority:    item.Priority,
			Status:      item.Status,
			Release:     item.Release,
			Date:        base.AddDate(0, 0, item.OffsetDays),
		})
	}
	return features
}

// KnownTemplate reports whether templateID names a built-in template.
func KnownTemplate(templateID string) bool {
	return templateID == "" || templateID == DemoTemplateID
}
