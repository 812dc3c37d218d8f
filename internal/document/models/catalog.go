package models

// Profile describes how a kind is recognized and what extraction returns.
type Profile struct {
	Label string
	// Keywords are matched case-insensitively against OCR text; an empty
	// list accepts any text.
	Keywords []string
	// NameField holds the holder's name, or "" when the kind carries none.
	NameField string
	// Fields is the extraction schema, in prompt order.
	Fields []string
}

var catalog = map[Kind]Profile{
	KindAadhaar: {
		Label:     "Aadhaar card",
		Keywords:  []string{"aadhaar", "आधार", "aadhar", "unique identification", "uidai", "government of india", "भारत सरकार"},
		NameField: FieldName,
		Fields:    []string{FieldAadhaarNumber, FieldName, FieldDOB, FieldGender, FieldAddress},
	},
	KindPANCard: {
		Label:     "PAN card",
		Keywords:  []string{"income tax", "आयकर", "permanent account number", "pan", "पॅन", "income tax department", "आयकर विभाग"},
		NameField: FieldName,
		Fields:    []string{FieldPANNumber, FieldName, FieldFatherName, FieldDateOfBirth},
	},
	KindBankPassbook: {
		Label:     "bank passbook",
		Keywords:  []string{"bank", "बैंक", "बँक", "account", "passbook", "savings", "current", "ifsc", "branch", "balance"},
		NameField: FieldAccountHolderName,
		Fields:    []string{FieldAccountNumber, FieldIFSC, FieldBankName, FieldAccountHolderName},
	},
	KindIncomeCertificate: {
		Label:     "income certificate",
		Keywords:  []string{"income", "आय", "उत्पन्न", "certificate", "प्रमाणपत्र", "annual income", "वार्षिक आय", "tehsildar", "तहसीलदार", "प्रमाणणपत्र"},
		NameField: FieldHolderName,
		Fields:    []string{FieldAnnualIncome, FieldCertificateNumber, FieldIssuingAuthority, FieldIssueDate, FieldHolderName},
	},
	KindRationCard: {
		Label:     "ration card",
		Keywords:  []string{"ration", "राशन", "शिधापत्रिका", "पुरवठापत्रिका", "food", "अन्न", "civil supplies", "नागरी पुरवठा"},
		NameField: FieldHolderName,
		Fields:    []string{FieldCardNumber, FieldCardType, FieldHolderName, FieldFamilyMembers, FieldIssueDate, FieldAnnualIncome},
	},
	KindVoterID: {
		Label:     "voter ID card",
		Keywords:  []string{"election", "निर्वाचन", "voter", "मतदाता", "epic", "election commission of india", "भारत निर्वाचन आयोग"},
		NameField: FieldHolderName,
		Fields:    []string{FieldVoterIDNumber, FieldHolderName, FieldFatherName, FieldAddress, FieldDateOfBirth},
	},
	KindDomicileCertificate: {
		Label:     "domicile certificate",
		Keywords:  []string{"domicile", "अधिवास", "निवास", "residence", "certificate", "प्रमाणपत्र", "maharashtra", "महाराष्ट्र"},
		NameField: FieldHolderName,
		Fields:    []string{FieldCertificateNumber, FieldHolderName, FieldState, FieldDistrict, FieldTaluka, FieldVillage, FieldIssueDate},
	},
	KindBirthCertificate: {
		Label:     "birth certificate",
		Keywords:  []string{"birth", "जन्म", "certificate", "प्रमाणपत्र", "registration", "पंजीकरण", "नोंदणी"},
		NameField: FieldName,
		Fields:    []string{FieldRegistrationNo, FieldName, FieldDateOfBirth, FieldDistrict},
	},
	KindSchoolLeaving: {
		Label:     "school leaving certificate",
		Keywords:  []string{"school", "शाळा", "स्कूल", "leaving", "certificate", "प्रमाणपत्र", "education", "शिक्षण", "student"},
		NameField: FieldStudentName,
		Fields:    []string{FieldStudentName, FieldDateOfBirth, FieldSchoolName},
	},
	KindPhotograph: {
		Label: "photograph",
	},
}

// ProfileFor returns the catalog entry for kind.
func ProfileFor(kind Kind) (Profile, bool) {
	s, ok := catalog[kind]
	return s, ok
}

// Kinds lists every known kind.
func Kinds() []Kind {
	return []Kind{
		KindAadhaar, KindPANCard, KindBankPassbook, KindIncomeCertificate, KindRationCard,
		KindVoterID, KindDomicileCertificate, KindBirthCertificate, KindSchoolLeaving, KindPhotograph,
	}
}
