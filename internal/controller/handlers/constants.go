package handlers

const (
	// SessionCookieName carries the claim session between claim and record.
	SessionCookieName = "qr_session_id"
	SessionCookiePath = "/api/attendance"

	// TokenMaxLength bounds tokens accepted in request bodies
	TokenMaxLength = 128

	// QRCodeSize is the edge of rendered QR images in pixels
	QRCodeSize = 320

	localsIdentity = "identity"
)

// Client-facing messages
const (
	MsgRescan        = "Invalid or expired QR code, please rescan"
	MsgClosed        = "Attendance Closed"
	MsgNotInScope    = "Student not part of this lecture"
	MsgAlreadyMarked = "Already marked"
	MsgInvalidQR     = "Invalid QR code"
	MsgMarked        = "Attendance marked"
	MsgInternal      = "Internal server error"

	MsgUnauthorized  = "Missing or invalid bearer token"
	MsgForbiddenRole = "This action is not available for your role"
	MsgNotPresenter  = "You cannot manage attendance for this class"
	MsgUnknownScope  = "Lecture or exam not found"
	MsgInvalidScope  = "Operation not supported for this class"
	MsgBadRequest    = "Invalid request"
	MsgNoExamToken   = "No QR code issued for you yet"

	MsgShowInvigilator = "Show this QR code to the invigilator"
)
