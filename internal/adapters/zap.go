package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/appsecsanta/research/pkg/types"
)

// ZAP parses OWASP ZAP DAST reports. Alerts sit either under a site list
// ({"site": [{"alerts": [...]}]}) or flat ({"alerts": [...]}); risk is a
// numeric code 0-3 and a cweid of "0" or "-1" means no classification.
type ZAP struct{}

type zapReport struct {
	Site   zapSites   `json:"site"`
	Alerts []zapAlert `json:"alerts"`
}

type zapSite struct {
	Alerts []zapAlert `json:"alerts"`
}

// zapSites accepts both a list of sites and a single site object.
type zapSites []zapSite

func (s *zapSites) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []zapSite
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	var single zapSite
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*s = zapSites{single}
	return nil
}

type zapAlert struct {
	PluginID  flexString `json:"pluginid"`
	AlertRef  string     `json:"alertRef"`
	Alert     string     `json:"alert"`
	Name      string     `json:"name"`
	RiskCode  flexString `json:"riskcode"`
	Risk      flexString `json:"risk"`
	CWEID     flexString `json:"cweid"`
	URL       string     `json:"url"`
	Instances []struct {
		URI string `json:"uri"`
	} `json:"instances"`
}

func (ZAP) Name() string { return "zap" }

func (ZAP) Category() types.Category { return types.CategoryDAST }

func (ZAP) Parse(data []byte, target string) ([]types.Finding, error) {
	var report zapReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding zap report: %w", err)
	}

	alerts := report.Alerts
	for _, site := range report.Site {
		alerts = append(alerts, site.Alerts...)
	}

	var findings []types.Finding
	for _, alert := range alerts {
		cwe := string(alert.CWEID)
		if cwe == "0" || cwe == "-1" {
			cwe = ""
		}
		location := alert.URL
		if len(alert.Instances) > 0 {
			location = alert.Instances[0].URI
		}
		findings = append(findings, types.Finding{
			Tool:        "zap",
			Target:      target,
			Category:    types.CategoryDAST,
			CWE:         cwe,
			Severity:    types.Severity(firstNonEmpty(string(alert.RiskCode), string(alert.Risk))),
			Location:    location,
			Description: firstNonEmpty(alert.Name, alert.Alert),
			RawID:       firstNonEmpty(string(alert.PluginID), alert.AlertRef),
		})
	}
	return findings, nil
}
