package adapters

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/appsecsanta/research/pkg/types"
)

func TestTrivyParse(t *testing.T) {
	data := []byte(`{
		"Results": [
			{"Vulnerabilities": [
				{"VulnerabilityID": "CVE-2023-1234", "PkgName": "openssl", "InstalledVersion": "1.1.1k",
				 "Severity": "HIGH", "Title": "Buffer overflow", "Description": "long text", "CweIDs": ["CWE-120", "CWE-787"]},
				{"VulnerabilityID": "CVE-2023-9999", "PkgName": "zlib", "InstalledVersion": "1.2.11",
				 "Severity": "UNKNOWN", "Description": "fallback text"}
			]},
			{"Vulnerabilities": null}
		]
	}`)
	findings, err := Trivy{}.Parse(data, "juice-shop")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("Parse() returned %d findings, want 2", len(findings))
	}
	want := types.Finding{
		Tool:        "trivy",
		Target:      "juice-shop",
		Category:    types.CategoryContainer,
		CWE:         "CWE-120",
		Severity:    "HIGH",
		Location:    "openssl@1.1.1k",
		Description: "Buffer overflow",
		RawID:       "CVE-2023-1234",
	}
	if findings[0] != want {
		t.Errorf("Parse()[0] = %+v, want %+v", findings[0], want)
	}
	if findings[1].Description != "fallback text" {
		t.Errorf("description fallback = %q, want raw Description", findings[1].Description)
	}
	if findings[1].CWE != "" {
		t.Errorf("CWE without CweIDs = %q, want empty", findings[1].CWE)
	}
}

func TestGrypeParseCWEVariants(t *testing.T) {
	data := []byte(`{
		"matches": [
			{"vulnerability": {"id": "GHSA-aaaa", "severity": "Critical", "description": "d1",
			  "relatedVulnerabilities": [{"cwes": ["CWE-89"]}]},
			 "artifact": {"name": "sqlite3", "version": "5.0.2"}},
			{"vulnerability": {"id": "GHSA-bbbb", "severity": "Negligible", "description": "d2",
			  "relatedVulnerabilities": [{"cwes": []}, {"cwes": [{"cweId": "79"}]}]},
			 "artifact": {"name": "marsdb", "version": "0.6.11"}},
			{"vulnerability": {"id": "GHSA-cccc", "severity": "Low", "description": "d3"},
			 "artifact": {"name": "", "version": ""}}
		]
	}`)
	findings, err := Grype{}.Parse(data, "juice-shop")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 3 {
		t.Fatalf("Parse() returned %d findings, want 3", len(findings))
	}
	if findings[0].CWE != "CWE-89" {
		t.Errorf("string cwe = %q, want CWE-89", findings[0].CWE)
	}
	if findings[1].CWE != "CWE-79" {
		t.Errorf("object cwe = %q, want CWE-79 (prefixed)", findings[1].CWE)
	}
	if findings[1].Location != "marsdb@0.6.11" {
		t.Errorf("location = %q, want marsdb@0.6.11", findings[1].Location)
	}
	if findings[2].CWE != "" || findings[2].Location != "" {
		t.Errorf("no related vulns: cwe %q location %q, want both empty", findings[2].CWE, findings[2].Location)
	}
	if findings[0].Severity != "Critical" {
		t.Errorf("severity = %q, want raw vendor value for the normalizer", findings[0].Severity)
	}
}

func TestBearerParseLayouts(t *testing.T) {
	item := `{"id": "ruby_lang_cookies", "rule_id": "javascript_express_cookies",
		"title": "Insecure cookie", "description": "Sensitive cookie without flags",
		"severity": "high", "filename": "app/server.js", "line_number": 42, "cwe_ids": ["614"]}`

	tests := []struct {
		name string
		data string
	}{
		{"flat array", "[" + item + "]"},
		{"findings wrapper", `{"findings": [` + item + `]}`},
		{"severity keyed", `{"high": [` + item + `]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings, err := Bearer{}.Parse([]byte(tt.data), "broken-crystals")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(findings) != 1 {
				t.Fatalf("Parse() returned %d findings, want 1", len(findings))
			}
			f := findings[0]
			if f.CWE != "614" {
				t.Errorf("cwe = %q, want 614", f.CWE)
			}
			if f.Location != "app/server.js:42" {
				t.Errorf("location = %q, want app/server.js:42", f.Location)
			}
			if f.Description != "Sensitive cookie without flags" {
				t.Errorf("description = %q", f.Description)
			}
			if f.RawID != "javascript_express_cookies" {
				t.Errorf("raw_id = %q, want rule_id preferred over id", f.RawID)
			}
		})
	}
}

func TestBearerSeverityFromKey(t *testing.T) {
	data := []byte(`{"critical": [{"rule_id": "r1", "title": "t", "filename": "a.js", "line_number": 1}]}`)
	findings, err := Bearer{}.Parse(data, "x")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("Parse() returned %d findings, want 1", len(findings))
	}
	if findings[0].Severity != "critical" {
		t.Errorf("severity = %q, want key name when item has none", findings[0].Severity)
	}
}

func TestNodeJSScanParse(t *testing.T) {
	data := []byte(`{
		"sec_issues": {
			"XSS": [
				{"title": "Reflected XSS", "description": "user input reaches template",
				 "severity": "ERROR", "filename": "views/search.js", "line": 17}
			],
			"Header Injection": [
				{"description": "header built from request", "path": "routes/redirect.js", "line": "8"}
			]
		}
	}`)
	findings, err := NodeJSScan{}.Parse(data, "juice-shop")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("Parse() returned %d findings, want 2", len(findings))
	}
	// Sections iterate in sorted order, so Header Injection comes first.
	if findings[0].RawID != "Header Injection" {
		t.Errorf("raw_id = %q, want section name when title missing", findings[0].RawID)
	}
	if findings[0].Location != "routes/redirect.js:8" {
		t.Errorf("location = %q, want path fallback with string line", findings[0].Location)
	}
	if findings[1].RawID != "Reflected XSS" {
		t.Errorf("raw_id = %q, want title", findings[1].RawID)
	}
	if findings[1].CWE != "" {
		t.Errorf("cwe = %q, tool emits none", findings[1].CWE)
	}
}

func TestNodeJSScanNodeJSFallback(t *testing.T) {
	data := []byte(`{"nodejs": {"SQLi": [{"title": "tainted query", "severity": "WARNING", "filename": "db.js", "line": 3}]}}`)
	findings, err := NodeJSScan{}.Parse(data, "x")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 1 || findings[0].RawID != "tainted query" {
		t.Fatalf("nodejs fallback findings = %+v, want one", findings)
	}
}

func TestBanditParse(t *testing.T) {
	data := []byte(`{
		"results": [
			{"test_id": "B608", "test_name": "hardcoded_sql_expressions",
			 "issue_text": "Possible SQL injection", "issue_severity": "MEDIUM",
			 "filename": "vulnpy/sqli.py", "line_number": 14, "issue_cwe": {"id": 89}},
			{"test_id": "B101", "issue_text": "assert used", "issue_severity": "LOW",
			 "filename": "tests/helper.py", "line_number": 0}
		]
	}`)
	findings, err := Bandit{}.Parse(data, "vulnpy")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("Parse() returned %d findings, want 2", len(findings))
	}
	if findings[0].CWE != "CWE-89" {
		t.Errorf("cwe = %q, want CWE-89 from issue_cwe.id", findings[0].CWE)
	}
	if findings[0].Location != "vulnpy/sqli.py:14" {
		t.Errorf("location = %q", findings[0].Location)
	}
	if findings[1].CWE != "" {
		t.Errorf("cwe without issue_cwe = %q, want empty", findings[1].CWE)
	}
	if findings[1].Location != "tests/helper.py" {
		t.Errorf("zero line location = %q, want bare path", findings[1].Location)
	}
}

func TestSemgrepParse(t *testing.T) {
	data := []byte(`{
		"results": [
			{"check_id": "javascript.express.security.injection.tainted-sql-string",
			 "path": "routes/login.js", "start": {"line": 33},
			 "extra": {"message": "Detected SQL statement built from user input",
			   "severity": "ERROR",
			   "metadata": {"cwe": ["CWE-89: Improper Neutralization"]}}},
			{"check_id": "generic.secrets.gitleaks.generic-api-key",
			 "path": "config.js", "start": {"line": 2},
			 "extra": {"message": "API key", "severity": "WARNING",
			   "metadata": {"cwe": "CWE-798"}}}
		]
	}`)
	findings, err := Semgrep{}.Parse(data, "webgoat")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("Parse() returned %d findings, want 2", len(findings))
	}
	if findings[0].CWE != "CWE-89: Improper Neutralization" {
		t.Errorf("cwe = %q, want raw metadata value", findings[0].CWE)
	}
	if findings[1].CWE != "CWE-798" {
		t.Errorf("scalar cwe = %q, want CWE-798", findings[1].CWE)
	}
	if findings[0].Location != "routes/login.js:33" {
		t.Errorf("location = %q", findings[0].Location)
	}
}

func TestZAPParseSiteList(t *testing.T) {
	data := []byte(`{
		"site": [
			{"alerts": [
				{"pluginid": "40018", "alert": "SQL Injection", "name": "SQL Injection",
				 "riskcode": "3", "cweid": "89",
				 "url": "http://target:3000/rest/products/search",
				 "instances": [{"uri": "http://target:3000/rest/products/search?q=test"}]},
				{"pluginid": 10021, "name": "X-Content-Type-Options Missing",
				 "riskcode": 1, "cweid": 0,
				 "url": "http://target:3000/"}
			]}
		]
	}`)
	findings, err := ZAP{}.Parse(data, "juice-shop")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("Parse() returned %d findings, want 2", len(findings))
	}
	if findings[0].Severity != "3" {
		t.Errorf("severity = %q, want raw risk code", findings[0].Severity)
	}
	if findings[0].Location != "http://target:3000/rest/products/search?q=test" {
		t.Errorf("location = %q, want instances[0].uri", findings[0].Location)
	}
	if findings[1].Severity != "1" {
		t.Errorf("numeric riskcode = %q, want \"1\"", findings[1].Severity)
	}
	if findings[1].CWE != "" {
		t.Errorf("cweid 0 = %q, want cleared", findings[1].CWE)
	}
	if findings[1].Location != "http://target:3000/" {
		t.Errorf("location = %q, want url fallback", findings[1].Location)
	}
	if findings[1].RawID != "10021" {
		t.Errorf("raw_id = %q, want numeric pluginid as string", findings[1].RawID)
	}
}

func TestZAPParseVariants(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"single site object", `{"site": {"alerts": [{"pluginid": "1", "name": "a", "riskcode": "2", "cweid": "-1", "url": "http://h/x"}]}}`},
		{"flat alerts", `{"alerts": [{"pluginid": "1", "name": "a", "risk": "2", "cweid": "", "url": "http://h/x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings, err := ZAP{}.Parse([]byte(tt.data), "dvwa")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(findings) != 1 {
				t.Fatalf("Parse() returned %d findings, want 1", len(findings))
			}
			if findings[0].Severity != "2" {
				t.Errorf("severity = %q, want 2", findings[0].Severity)
			}
			if findings[0].CWE != "" {
				t.Errorf("cwe = %q, want empty", findings[0].CWE)
			}
		})
	}
}

func TestNucleiParseArray(t *testing.T) {
	data := []byte(`[
		{"template-id": "cve-2021-44228", "matched-at": "http://host:8080/api",
		 "info": {"name": "Log4j RCE", "severity": "critical",
		   "classification": {"cwe-id": ["CWE-502"]}}},
		{"template-id": "ssl-issuer", "host": "https://host",
		 "info": {"name": "SSL Issuer", "severity": "info",
		   "classification": {"cwe-id": "CWE-295"}}}
	]`)
	findings, err := Nuclei{}.Parse(data, "altoro-mutual")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("Parse() returned %d findings, want 2", len(findings))
	}
	if findings[0].CWE != "CWE-502" {
		t.Errorf("array cwe-id = %q, want CWE-502", findings[0].CWE)
	}
	if findings[1].CWE != "CWE-295" {
		t.Errorf("scalar cwe-id = %q, want CWE-295", findings[1].CWE)
	}
	if findings[1].Location != "https://host" {
		t.Errorf("location = %q, want host fallback", findings[1].Location)
	}
}

func TestNucleiParseJSONL(t *testing.T) {
	data := []byte(`{"template-id": "t1", "matched-at": "http://h/a", "info": {"name": "A", "severity": "high"}}
not valid json at all
{"template-id": "t2", "matched-at": "http://h/b", "info": {"name": "B", "severity": "low"}}`)
	findings, err := Nuclei{}.Parse(data, "x")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("Parse() returned %d findings, want 2 (bad line skipped)", len(findings))
	}
	if findings[0].RawID != "t1" || findings[1].RawID != "t2" {
		t.Errorf("raw ids = %q, %q", findings[0].RawID, findings[1].RawID)
	}
}

func TestNucleiParseNoValidRecords(t *testing.T) {
	if _, err := (Nuclei{}).Parse([]byte("garbage\nmore garbage"), "x"); err == nil {
		t.Fatal("Parse() error = nil, want error when no line parses")
	}
	findings, err := Nuclei{}.Parse([]byte("   "), "x")
	if err != nil {
		t.Fatalf("Parse(blank) error = %v, want nil", err)
	}
	if len(findings) != 0 {
		t.Errorf("Parse(blank) = %d findings, want 0", len(findings))
	}
}

func TestNPMAuditParse(t *testing.T) {
	data := []byte(`{
		"vulnerabilities": {
			"lodash": {
				"severity": "high", "range": "<4.17.21",
				"via": [
					{"title": "Prototype Pollution", "url": "https://github.com/advisories/GHSA-p6mc-m468-83gw", "cwe": ["CWE-1321"]}
				]
			},
			"ansi-regex": {"severity": "moderate", "via": ["minimist", "mkdirp"]},
			"express-jwt": {
				"severity": "critical",
				"via": [{"title": "Auth bypass", "source": 1094500, "cwe": []}]
			}
		}
	}`)
	findings, err := NPMAudit{}.Parse(data, "juice-shop")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 3 {
		t.Fatalf("Parse() returned %d findings, want 3", len(findings))
	}
	// Package names iterate sorted: ansi-regex, express-jwt, lodash.
	if findings[0].Description != "Dependency of: minimist, mkdirp" {
		t.Errorf("chain description = %q", findings[0].Description)
	}
	if findings[0].Location != "ansi-regex" {
		t.Errorf("location without range = %q, want bare name", findings[0].Location)
	}
	if findings[1].RawID != "1094500" {
		t.Errorf("raw_id = %q, want numeric source fallback", findings[1].RawID)
	}
	if findings[2].RawID != "GHSA-p6mc-m468-83gw" {
		t.Errorf("raw_id = %q, want advisory id from url tail", findings[2].RawID)
	}
	if findings[2].Location != "lodash@<4.17.21" {
		t.Errorf("location = %q, want name@range", findings[2].Location)
	}
	if findings[2].CWE != "CWE-1321" {
		t.Errorf("cwe = %q, want CWE-1321", findings[2].CWE)
	}
}

func TestPipAuditParse(t *testing.T) {
	data := []byte(`{
		"dependencies": [
			{"name": "flask", "version": "0.12.2", "vulns": [
				{"id": "PYSEC-2023-62", "description": "cookie parsing flaw"},
				{"id": "GHSA-m2qf", "description": "session disclosure"}
			]},
			{"name": "requests", "version": "2.31.0", "vulns": []}
		]
	}`)
	findings, err := PipAudit{}.Parse(data, "vulnpy")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("Parse() returned %d findings, want 2", len(findings))
	}
	for _, f := range findings {
		if f.Severity != "MEDIUM" {
			t.Errorf("severity = %q, want MEDIUM default", f.Severity)
		}
		if f.Location != "flask@0.12.2" {
			t.Errorf("location = %q, want flask@0.12.2", f.Location)
		}
	}
	if findings[0].RawID != "PYSEC-2023-62" {
		t.Errorf("raw_id = %q", findings[0].RawID)
	}
}

func TestDepCheckParseCWEShapes(t *testing.T) {
	data := []byte(`{
		"dependencies": [
			{"fileName": "struts2-core-2.3.12.jar", "vulnerabilities": [
				{"name": "CVE-2017-5638", "severity": "CRITICAL", "description": "OGNL injection", "cwes": ["CWE-20"]},
				{"name": "CVE-2016-1181", "severity": "HIGH", "description": "d", "cwes": [{"cwe": "CWE-94"}]},
				{"name": "CVE-2014-0114", "severity": "HIGH", "description": "d", "cwes": [20]}
			]}
		]
	}`)
	findings, err := DepCheck{}.Parse(data, "webgoat")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 3 {
		t.Fatalf("Parse() returned %d findings, want 3", len(findings))
	}
	wantCWE := []string{"CWE-20", "CWE-94", "20"}
	for i, f := range findings {
		if f.CWE != wantCWE[i] {
			t.Errorf("findings[%d].CWE = %q, want %q", i, f.CWE, wantCWE[i])
		}
		if f.Location != "struts2-core-2.3.12.jar" {
			t.Errorf("findings[%d].Location = %q", i, f.Location)
		}
	}
	if findings[0].Tool != "dep-check" {
		t.Errorf("tool = %q, want dep-check", findings[0].Tool)
	}
}

func TestCheckovParseTargetInference(t *testing.T) {
	data := []byte(`[
		{"check_type": "dockerfile", "results": {"failed_checks": [
			{"check_id": "CKV_DOCKER_2", "check_name": "Ensure HEALTHCHECK", "file_path": "/targets/vulnpy/Dockerfile", "resource": "/targets/vulnpy/Dockerfile"},
			{"check_id": "CKV_DOCKER_3", "check_name": "Ensure user", "file_path": "/shared/base/Dockerfile", "resource": ""}
		]}},
		{"check_type": "kubernetes", "results": {"failed_checks": [
			{"check_id": "CKV_K8S_21", "check_name": "", "guideline": "https://docs", "file_path": "/targets/juice-shop/k8s.yaml", "resource": "Deployment.juice", "severity": "HIGH"}
		]}}
	]`)
	adapter := NewCheckov([]string{"juice-shop", "vulnpy"})
	findings, err := adapter.Parse(data, TargetAll)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 3 {
		t.Fatalf("Parse() returned %d findings, want 3", len(findings))
	}
	if findings[0].Target != "vulnpy" {
		t.Errorf("target = %q, want vulnpy from path", findings[0].Target)
	}
	if findings[1].Target != "unknown" {
		t.Errorf("target = %q, want unknown for unmatched path", findings[1].Target)
	}
	if findings[1].Severity != "MEDIUM" {
		t.Errorf("severity = %q, want MEDIUM default", findings[1].Severity)
	}
	if findings[1].Location != "/shared/base/Dockerfile" {
		t.Errorf("location = %q, want bare path without resource", findings[1].Location)
	}
	if findings[2].Target != "juice-shop" {
		t.Errorf("target = %q, want juice-shop", findings[2].Target)
	}
	if findings[2].Severity != "HIGH" {
		t.Errorf("severity = %q, want native value kept", findings[2].Severity)
	}
	if findings[2].Location != "/targets/juice-shop/k8s.yaml:Deployment.juice" {
		t.Errorf("location = %q", findings[2].Location)
	}
	if !strings.HasPrefix(findings[2].Description, "CKV_K8S_21: https://docs") {
		t.Errorf("description = %q, want guideline fallback", findings[2].Description)
	}
}

func TestCheckovParseSingleBlock(t *testing.T) {
	data := []byte(`{"check_type": "terraform", "results": {"failed_checks": [
		{"check_id": "CKV_AWS_20", "check_name": "S3 public read", "file_path": "/targets/dvwa/main.tf", "resource": "aws_s3_bucket.b"}
	]}}`)
	adapter := NewCheckov([]string{"dvwa"})
	findings, err := adapter.Parse(data, "dvwa")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("Parse() returned %d findings, want 1", len(findings))
	}
	if findings[0].Target != "dvwa" {
		t.Errorf("explicit target = %q, want dvwa (no inference)", findings[0].Target)
	}
}

func TestCheckovTargetPrefixPrecedence(t *testing.T) {
	adapter := NewCheckov([]string{"app", "app-v2"})
	if got := adapter.inferTarget("/targets/app-v2/main.tf"); got != "app-v2" {
		t.Errorf("inferTarget = %q, want longer name to win", got)
	}
}

func TestCodeQLParse(t *testing.T) {
	data := []byte(`{
		"runs": [{
			"tool": {"driver": {"rules": [
				{"id": "js/sql-injection", "properties": {"tags": ["security", "external/cwe/cwe-089"]}},
				{"id": "js/helptext", "help": {"text": "See CWE-352 for details."}}
			]}},
			"results": [
				{"ruleId": "js/sql-injection", "level": "error",
				 "message": {"text": "Query built from user input"},
				 "locations": [{"physicalLocation": {"artifactLocation": {"uri": "routes/search.js"}, "region": {"startLine": 55}}}]},
				{"ruleId": "js/helptext", "message": {"text": "CSRF"},
				 "locations": [{"physicalLocation": {"artifactLocation": {"uri": "routes/admin.js"}}}]},
				{"ruleId": "js/untracked", "level": "note", "message": {"text": "tagged result"},
				 "properties": {"tags": ["external/cwe/cwe-79"]}}
			]
		}]
	}`)
	findings, err := CodeQL{}.Parse(data, "juice-shop")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 3 {
		t.Fatalf("Parse() returned %d findings, want 3", len(findings))
	}
	if findings[0].CWE != "CWE-89" {
		t.Errorf("rule tag cwe = %q, want CWE-89 (zero-padding stripped)", findings[0].CWE)
	}
	if findings[0].Location != "routes/search.js:55" {
		t.Errorf("location = %q", findings[0].Location)
	}
	if findings[1].CWE != "CWE-352" {
		t.Errorf("help text cwe = %q, want CWE-352", findings[1].CWE)
	}
	if findings[1].Severity != "warning" {
		t.Errorf("missing level = %q, want warning default", findings[1].Severity)
	}
	if findings[1].Location != "routes/admin.js" {
		t.Errorf("location without line = %q, want bare uri", findings[1].Location)
	}
	if findings[2].CWE != "CWE-79" {
		t.Errorf("result tag cwe = %q, want CWE-79", findings[2].CWE)
	}
}

func TestParseMalformedJSON(t *testing.T) {
	registry := NewRegistry(Options{Targets: []string{"juice-shop"}})
	for _, name := range []string{"trivy", "grype", "bearer", "nodejsscan", "bandit", "semgrep", "zap", "nuclei", "npm-audit", "pip-audit", "dep-check", "checkov", "codeql"} {
		t.Run(name, func(t *testing.T) {
			adapter, ok := registry.Lookup(name)
			if !ok {
				t.Fatalf("Lookup(%q) missing", name)
			}
			if _, err := adapter.Parse([]byte(`{"truncated`), "x"); err == nil {
				t.Errorf("Parse(malformed) error = nil, want error")
			}
		})
	}
}

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry(Options{
		Targets: []string{"juice-shop"},
		Aliases: map[string]string{"opengrep": "semgrep", "njsscan": "nodejsscan", "OWASP-ZAP": "zap"},
	})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"canonical", "trivy", "trivy"},
		{"alias", "opengrep", "semgrep"},
		{"alias case insensitive", "Njsscan", "nodejsscan"},
		{"alias defined upper", "owasp-zap", "zap"},
		{"whitespace", "  bandit ", "bandit"},
		{"unknown", "sonarqube", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := registry.Resolve(tt.in); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if _, ok := registry.Lookup("opengrep"); !ok {
		t.Error("Lookup(opengrep) = false, want alias to resolve")
	}
	if _, ok := registry.Lookup("sonarqube"); ok {
		t.Error("Lookup(sonarqube) = true, want false")
	}
}

func TestRegistryMatchNamesLongestFirst(t *testing.T) {
	registry := NewRegistry(Options{Aliases: map[string]string{"npm": "npm-audit"}})
	names := registry.MatchNames()
	for i := 1; i < len(names); i++ {
		if len(names[i]) > len(names[i-1]) {
			t.Fatalf("MatchNames()[%d] %q longer than predecessor %q", i, names[i], names[i-1])
		}
	}
	npmIdx, auditIdx := -1, -1
	for i, n := range names {
		switch n {
		case "npm":
			npmIdx = i
		case "npm-audit":
			auditIdx = i
		}
	}
	if auditIdx == -1 || npmIdx == -1 || auditIdx > npmIdx {
		t.Errorf("npm-audit at %d must precede npm at %d", auditIdx, npmIdx)
	}
}

func TestFlexString(t *testing.T) {
	var doc struct {
		A flexString `json:"a"`
		B flexString `json:"b"`
		C flexString `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": "text", "b": 42, "c": null}`), &doc); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if doc.A != "text" || doc.B != "42" || doc.C != "" {
		t.Errorf("flexString = %q %q %q", doc.A, doc.B, doc.C)
	}
}

func TestFlexStringList(t *testing.T) {
	var doc struct {
		A flexStringList `json:"a"`
		B flexStringList `json:"b"`
		C flexStringList `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": ["x", 2], "b": "single", "c": null}`), &doc); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if doc.A.first() != "x" || doc.B.first() != "single" || doc.C.first() != "" {
		t.Errorf("first() = %q %q %q", doc.A.first(), doc.B.first(), doc.C.first())
	}
	empties := flexStringList{"", "late"}
	if empties.first() != "late" {
		t.Errorf("first() = %q, want first non-empty", empties.first())
	}
}
