package api

import (
	"goeat/internal/hours"
	"goeat/internal/model"
)

type scheduleDTO struct {
	DayOfWeek   model.DayOfWeek `json:"dayOfWeek"`
	IsOpen      bool            `json:"isOpen"`
	OpeningTime *string         `json:"openingTime"`
	ClosingTime *string         `json:"closingTime"`
}

type fullStatusResponse struct {
	Schedules      []scheduleDTO `json:"schedules"`
	IsOpenNow      bool          `json:"isOpenNow"`
	IsManuallyOpen bool          `json:"isManuallyOpen"`
}

type partnerStatusResponse struct {
	IsOpenNow      bool `json:"isOpenNow"`
	IsScheduleOpen bool `json:"isScheduleOpen"`
	IsManuallyOpen bool `json:"isManuallyOpen"`
}

// dayRequest.DayOfWeek stays a string so the service can report bad values.
type dayRequest struct {
	DayOfWeek   string `json:"dayOfWeek"`
	IsOpen      bool   `json:"isOpen"`
	OpeningTime string `json:"openingTime"`
	ClosingTime string `json:"closingTime"`
}

type replaceScheduleRequest struct {
	Schedules []dayRequest `json:"schedules"`
}

type manualStatusRequest struct {
	IsOpen *bool `json:"isOpen"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (r dayRequest) toInput() hours.DayInput {
	return hours.DayInput{
		DayOfWeek:   r.DayOfWeek,
		IsOpen:      r.IsOpen,
		OpeningTime: r.OpeningTime,
		ClosingTime: r.ClosingTime,
	}
}

func toScheduleDTO(h model.OperatingHours) scheduleDTO {
	dto := scheduleDTO{DayOfWeek: h.DayOfWeek, IsOpen: h.IsOpen}
	if h.OpeningTime != nil {
		s := h.OpeningTime.String()
		dto.OpeningTime = &s
	}
	if h.ClosingTime != nil {
		s := h.ClosingTime.String()
		dto.ClosingTime = &s
	}
	return dto
}

func toFullStatusResponse(s *hours.FullStatus) fullStatusResponse {
	out := fullStatusResponse{
		Schedules:      make([]scheduleDTO, 0, len(s.Schedules)),
		IsOpenNow:      s.IsOpenNow,
		IsManuallyOpen: s.ManuallyOpen,
	}
	for _, h := range s.Schedules {
		out.Schedules = append(out.Schedules, toScheduleDTO(h))
	}
	return out
}
