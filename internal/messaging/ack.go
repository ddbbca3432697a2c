package messaging

import "net/http"

// EmptyTwiML acknowledges a webhook without sending a reply through TwiML.
const EmptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

func writeTwiMLAck(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(EmptyTwiML))
}
