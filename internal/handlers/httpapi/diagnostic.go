package httpapi

import "net/http"

// diagnosticPage confirms the gateway is reachable from a browser. It is not
// part of the data contract.
const diagnosticPage = `<!DOCTYPE html>
<html>
<head><title>walletgate</title></head>
<body>
<h1>walletgate is running</h1>
<p>The gateway is reachable. Balance and transaction endpoints are live.</p>
</body>
</html>
`

// handleDiagnostic serves GET /test.
func (a *api) handleDiagnostic(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(diagnosticPage))
}
