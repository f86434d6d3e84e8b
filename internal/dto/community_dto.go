package dto

import (
	"github.com/google/uuid"

	"github.com/tumbuhin/farmforecast/internal/models"
)

type CropShare struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type DistrictActivity struct {
	Name         string `json:"name"`
	Reports      int    `json:"reports"`
	Contributors int    `json:"contributors"`
}

type PestIssue struct {
	Issue string `json:"issue"`
	Count int    `json:"count"`
}

type StatsResponse struct {
	TotalUsers      int                `json:"total_users"`
	TotalReports    int                `json:"total_reports"`
	AccuracyRate    int                `json:"accuracy_rate"`
	ActiveAreas     int                `json:"active_areas"`
	TopCrops        []CropShare        `json:"top_crops"`
	ActiveDistricts []DistrictActivity `json:"active_districts"`
	PestIssues      []PestIssue        `json:"pest_issues"`
	Loading         bool               `json:"loading"`
}

type LeaderboardEntry struct {
	Rank          int       `json:"rank"`
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	Location      string    `json:"location"`
	Contributions int       `json:"contributions"`
	Accuracy      int       `json:"accuracy"`
	Badge         string    `json:"badge"`
}

type DistrictRanking struct {
	Name    string `json:"name"`
	Reports int    `json:"reports"`
	Members int    `json:"members"`
}

type LeaderboardResponse struct {
	Leaders   []LeaderboardEntry `json:"leaders"`
	Districts []DistrictRanking  `json:"districts"`
	Me        *LeaderboardEntry  `json:"me,omitempty"`
	Loading   bool               `json:"loading"`
}

type PredictionsResponse struct {
	Data    []models.Prediction `json:"data"`
	Loading bool                `json:"loading"`
	Note    string              `json:"note,omitempty"`
}
