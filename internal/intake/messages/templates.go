package messages

import "enrollment/internal/intake/models"

// ID names a user-facing message.
type ID string

const (
	Consent              ID = "consent"
	ConsentReprompt      ID = "consent_reprompt"
	ConsentDeclined      ID = "consent_declined"
	UploadPrimaryID      ID = "upload_primary_id"
	TypePrimaryID        ID = "type_primary_id"
	InvalidPrimaryID     ID = "invalid_primary_id"
	PrimaryIDNotFound    ID = "primary_id_not_found"
	IdentityPrefilled    ID = "identity_prefilled"
	ConfirmIdentity      ID = "confirm_identity"
	ConfirmReprompt      ID = "confirm_reprompt"
	CorrectionField      ID = "correction_field"
	CorrectionValue      ID = "correction_value"
	NameRequired         ID = "name_required"
	InvalidDate          ID = "invalid_date"
	UploadSecondaryID    ID = "upload_secondary_id"
	InvalidSecondaryID   ID = "invalid_secondary_id"
	NotLinked            ID = "not_linked"
	LinkedMobilePrompt   ID = "linked_mobile_prompt"
	MobilePrompt         ID = "mobile_prompt"
	InvalidMobile        ID = "invalid_mobile"
	EmailPrompt          ID = "email_prompt"
	InvalidEmail         ID = "invalid_email"
	MaritalPrompt        ID = "marital_prompt"
	InvalidOption        ID = "invalid_option"
	DomicilePrompt       ID = "domicile_prompt"
	DomicileUpload       ID = "domicile_upload"
	RationColorPrompt    ID = "ration_color_prompt"
	RationWhite          ID = "ration_white"
	RationSubsidized     ID = "ration_subsidized"
	UploadPrompt         ID = "upload_prompt"
	WrongUploadKind      ID = "wrong_upload_kind"
	UnsupportedFile      ID = "unsupported_file"
	DocumentAccepted     ID = "document_accepted"
	IncomeAccepted       ID = "income_accepted"
	IncomeNotFound       ID = "income_not_found"
	IncomeExceeds        ID = "income_exceeds"
	IncomeRetry          ID = "income_retry"
	RationIncomeRetry    ID = "ration_income_retry"
	IncomeIneligible     ID = "income_ineligible"
	Exited               ID = "exited"
	FinalReview          ID = "final_review"
	ReviewReprompt       ID = "review_reprompt"
	ReviewEdit           ID = "review_edit"
	Declaration          ID = "declaration"
	DeclarationReprompt  ID = "declaration_reprompt"
	DeclarationAccepted  ID = "declaration_accepted"
	SubmitReprompt       ID = "submit_reprompt"
	Submitted            ID = "submitted"
	AlreadyApplied       ID = "already_applied"
	SubmissionFailed     ID = "submission_failed"
	UploadFailed         ID = "upload_failed"
	TryAgain             ID = "try_again"
	SessionEnded         ID = "session_ended"
	CompletedIdempotent  ID = "completed_idempotent"
)

var english = map[ID]string{
	Consent: `To check your eligibility we need to collect personal information: Aadhaar number, PAN, income, bank details and supporting documents.
The information is protected under the Digital Personal Data Protection Act.

Do you consent to share it for verification? Reply YES / NO (होय / नाही).`,
	ConsentReprompt: `Please reply YES or NO (होय / नाही).`,
	ConsentDeclined: `Thank you for your response. You can come back any time.
Application process ended.`,
	UploadPrimaryID: `Thank you. Please upload ONE image showing both the front and back of your Aadhaar card.
Both sides must be clearly readable.`,
	TypePrimaryID:     `Thank you. Please type your 12-digit Aadhaar number.`,
	InvalidPrimaryID:  `That is not a valid Aadhaar number. Please type the 12 digits printed on your card.`,
	PrimaryIDNotFound: `We could not read the 12-digit Aadhaar number on this document. Please upload a clearer image showing both sides of the card.`,
	IdentityPrefilled: `Your Aadhaar details were already verified:
Name: {name}
Date of Birth: {dob}

Please upload your PAN card.`,
	ConfirmIdentity: `Aadhaar details:

Aadhaar: {aadhaar}
Name: {name}
Date of Birth: {dob}
Address: {address}

Is this correct? Type YES to continue or CORRECTION to change something.`,
	ConfirmReprompt: `Please type YES or CORRECTION.`,
	CorrectionField: `Which detail needs correcting?
1. Name
2. Date of Birth
3. Address`,
	CorrectionValue:    `Please enter the correct {field}:`,
	NameRequired:       `Please type your full name exactly as printed on your Aadhaar card:`,
	InvalidDate:        `Please enter the date as DD/MM/YYYY:`,
	UploadSecondaryID:  `Please upload your PAN card.`,
	InvalidSecondaryID: `We could not find a valid PAN number on this document. Please upload a clear image of your PAN card.`,
	NotLinked: `Your Aadhaar and PAN are not linked. Please link them at https://www.incometax.gov.in/iec/foportal/ before applying.
Application process ended.`,
	LinkedMobilePrompt: `Your Aadhaar and PAN are linked.

Enter your 10-digit mobile number:`,
	MobilePrompt:  `Enter your 10-digit mobile number:`,
	InvalidMobile: `Invalid mobile number. Please enter 10 digits starting with 6, 7, 8 or 9:`,
	EmailPrompt:   `Enter your email address, or type SKIP:`,
	InvalidEmail:  `Invalid email address. Please enter a valid email or type SKIP:`,
	MaritalPrompt: `What is your marital status?
1. Married
2. Unmarried
3. Widow
4. Divorced`,
	InvalidOption: `Please choose one of the listed options.`,
	DomicilePrompt: `Select ONE document to prove Maharashtra domicile:
1. Domicile Certificate
2. Ration Card
3. Voter ID
4. Birth Certificate
5. School Leaving Certificate`,
	DomicileUpload: `Please upload your {doc}.`,
	RationColorPrompt: `Ration card accepted. What colour is your ration card?
1. Yellow
2. Orange
3. White`,
	RationWhite:      `A white ration card needs an income certificate. Please upload your income certificate.`,
	RationSubsidized: `No income certificate is needed for a {color} ration card. Please upload the first page of your bank passbook.`,
	UploadPrompt:     `Please upload your {doc}.`,
	WrongUploadKind:  `Please upload your {doc} and choose '{doc}' as the document type.`,
	UnsupportedFile:  `Unsupported file type. Please upload a PDF, JPG or PNG file.`,
	DocumentAccepted: `{doc} accepted.

{next}`,
	IncomeAccepted: `Income certificate accepted. Annual income: {income}.

Please upload the first page of your bank passbook.`,
	IncomeNotFound:    `We could not find the annual income on this certificate. Please upload a clear certificate where the amount is visible.`,
	IncomeExceeds:     `Not eligible: annual income {income} exceeds {ceiling}.`,
	IncomeRetry:       `Please upload a corrected income certificate or type EXIT to quit.`,
	RationIncomeRetry: `Type WHITE to upload an income certificate instead, or EXIT to quit.`,
	IncomeIneligible: `Not eligible: the recorded annual income {income} exceeds {ceiling}.
Application process ended.`,
	Exited: `You have left the application. Type RESTART to begin again.`,
	FinalReview: `APPLICATION REVIEW

Name: {name}
Date of Birth: {dob} (Age: {age})
Aadhaar: {aadhaar}
PAN: {pan}
Marital Status: {marital}
Mobile: {mobile}
Email: {email}
Address: {address}
Bank Account: {account} ({ifsc}, {bank})
Annual Income: {income}
Ration Card: {ration}
Documents attached: {documents}

Is everything correct? Type YES to continue or NO to make changes.`,
	ReviewReprompt:      `Please type YES or NO.`,
	ReviewEdit:          `To change your details, type RESTART to start a new application. Type YES to continue with the details shown.`,
	Declaration:         `I declare that all information provided is true and correct, and that false information may lead to cancellation of benefits.

Type I AGREE to confirm.`,
	DeclarationReprompt: `Please type I AGREE to accept the declaration.`,
	DeclarationAccepted: `Declaration accepted. Type SUBMIT to submit your application.`,
	SubmitReprompt:      `Type SUBMIT to submit your application.`,
	Submitted: `APPLICATION SUBMITTED

Congratulations, {name}!
Your application ID is {app_id}. Keep it for tracking.
Updates will be sent to {mobile}.`,
	AlreadyApplied:      `An application with this Aadhaar number already exists. If you think this is a mistake, please contact the helpline.`,
	SubmissionFailed:    `We could not submit your application right now. Please type SUBMIT to try again.`,
	UploadFailed:        `The upload failed. Please try uploading the document again.`,
	TryAgain:            `Something went wrong while processing your request. Please try again.`,
	SessionEnded:        `This application session has ended. Type RESTART to begin again.`,
	CompletedIdempotent: `Your application {app_id} has been submitted. Type RESTART to begin a new one.`,
}

// Regional templates cover the prompts whose reply tokens are language
// bound. Everything else is translated on demand or shown in English.
var regional = map[models.Language]map[ID]string{
	models.LanguageMarathi: {
		Consent:             "आपली पात्रता तपासण्यासाठी आम्हाला आपली वैयक्तिक माहिती (आधार, पॅन, उत्पन्न, बँक तपशील) आवश्यक आहे.\nही माहिती डिजिटल वैयक्तिक डेटा संरक्षण कायद्यानुसार सुरक्षित ठेवली जाईल.\n\nआपण संमती देता का? उत्तर द्या: होय / नाही",
		ConsentReprompt:     "कृपया होय किंवा नाही असे उत्तर द्या.",
		ConfirmReprompt:     "कृपया होय किंवा दुरुस्ती टाइप करा.",
		Declaration:         "मी घोषित करतो/करते की दिलेली सर्व माहिती खरी व अचूक आहे.\n\nपुष्टी करण्यासाठी I AGREE टाइप करा.",
		DeclarationAccepted: "घोषणा स्वीकारली. अर्ज सादर करण्यासाठी SUBMIT टाइप करा.",
		SubmitReprompt:      "अर्ज सादर करण्यासाठी SUBMIT टाइप करा.",
	},
	models.LanguageHindi: {
		Consent:             "आपकी पात्रता जांचने के लिए हमें आपकी व्यक्तिगत जानकारी (आधार, पैन, आय, बैंक विवरण) चाहिए।\nयह जानकारी डिजिटल व्यक्तिगत डेटा संरक्षण अधिनियम के अनुसार सुरक्षित रखी जाएगी।\n\nक्या आप सहमति देते हैं? उत्तर दें: हां / नहीं",
		ConsentReprompt:     "कृपया हां या नहीं में उत्तर दें।",
		ConfirmReprompt:     "कृपया हां या सुधार टाइप करें।",
		Declaration:         "मैं घोषणा करता/करती हूं कि दी गई सभी जानकारी सही है।\n\nपुष्टि के लिए I AGREE टाइप करें।",
		DeclarationAccepted: "घोषणा स्वीकार की गई। आवेदन जमा करने के लिए SUBMIT टाइप करें।",
		SubmitReprompt:      "आवेदन जमा करने के लिए SUBMIT टाइप करें।",
	},
}
