package dto

import (
	"github.com/google/uuid"

	"github.com/tumbuhin/farmforecast/internal/models"
)

type SubmitReportRequest struct {
	Location             string  `json:"location" validate:"required"`
	District             string  `json:"district" validate:"required"`
	SoilType             string  `json:"soil_type" validate:"required,oneof=clay loam sand silt"`
	LandCondition        string  `json:"land_condition" validate:"required,oneof=wet dry flooded normal"`
	CurrentCrop          string  `json:"current_crop" validate:"required"`
	LastHarvestQuantity  float64 `json:"last_harvest_quantity" validate:"required,gt=0"`
	LastHarvestCondition string  `json:"last_harvest_condition" validate:"required,oneof=excellent good fair poor"`
	PestIssues           string  `json:"pest_issues"`
	WeatherCondition     string  `json:"weather_condition" validate:"required"`
}

type SubmitWarningRequest struct {
	Type        string `json:"type" validate:"required,oneof=pest disease weather market"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Severity    string `json:"severity" validate:"required,oneof=low medium high"`
}

// CollectionResponse mirrors a live collection: its rows plus the loading
// flag and last fetch error.
type CollectionResponse[T any] struct {
	Data    []T    `json:"data"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

type ReportListResponse = CollectionResponse[models.Report]

type WarningListResponse = CollectionResponse[models.Warning]

type DistrictListResponse = CollectionResponse[models.District]

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Error   bool               `json:"error"`
	Message string             `json:"message"`
	Details []ValidationDetail `json:"details"`
}

type DeleteResponse struct {
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
}
