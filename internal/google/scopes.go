package google

import gmail "google.golang.org/api/gmail/v1"

// Scopes requested during authorization. Drafting, sending, label
// management and read access each need their own scope.
var Scopes = []string{
	gmail.GmailSendScope,
	gmail.GmailReadonlyScope,
	gmail.GmailLabelsScope,
	gmail.GmailModifyScope,
}
