package domain

import (
	"context"
	"errors"
)

var ErrInvalidOrganization = errors.New("invalid_organization")

type QueueRequest struct {
	// Top bounds the queue length; 0 falls back to the configured default.
	Top int
}

type QueueItem struct {
	InvoiceID          string  `json:"invoiceId"`
	CustomerID         string  `json:"customerId"`
	CustomerName       string  `json:"customerName"`
	Outstanding        string  `json:"outstanding"`
	DaysOverdue        int     `json:"daysOverdue"`
	RiskScore          int     `json:"riskScore"`
	Priority           string  `json:"priority"`
	SuccessProbability float64 `json:"successProbability"`
}

type QueueResponse struct {
	TotalOverdue int         `json:"totalOverdue"`
	Items        []QueueItem `json:"items"`
}

type Service interface {
	Queue(context.Context, QueueRequest) (QueueResponse, error)
}
