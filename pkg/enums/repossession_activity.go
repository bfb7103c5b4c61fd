package enums

import "fmt"

// NoticeType grades the escalation level of a repossession notice.
type NoticeType string

const (
	NoticeFirst       NoticeType = "first_notice"
	NoticeSecond      NoticeType = "second_notice"
	NoticeFinal       NoticeType = "final_notice"
	NoticeLegal       NoticeType = "legal_notice"
	NoticeCourtSummon NoticeType = "court_summons"
)

var validNoticeTypes = []NoticeType{
	NoticeFirst,
	NoticeSecond,
	NoticeFinal,
	NoticeLegal,
	NoticeCourtSummon,
}

// IsValid reports whether the value is a known NoticeType.
func (n NoticeType) IsValid() bool {
	for _, candidate := range validNoticeTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNoticeType converts raw input into a NoticeType.
func ParseNoticeType(value string) (NoticeType, error) {
	for _, candidate := range validNoticeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notice type %q", value)
}

// NoticeDeliveryMethod maps to the notice_delivery_method enum.
type NoticeDeliveryMethod string

const (
	NoticeDeliveryEmail        NoticeDeliveryMethod = "email"
	NoticeDeliveryPost         NoticeDeliveryMethod = "post"
	NoticeDeliveryHandDelivery NoticeDeliveryMethod = "hand_delivery"
	NoticeDeliverySMS          NoticeDeliveryMethod = "sms"
	NoticeDeliveryCourier      NoticeDeliveryMethod = "courier"
)

var validNoticeDeliveryMethods = []NoticeDeliveryMethod{
	NoticeDeliveryEmail,
	NoticeDeliveryPost,
	NoticeDeliveryHandDelivery,
	NoticeDeliverySMS,
	NoticeDeliveryCourier,
}

// IsValid reports whether the value is a known NoticeDeliveryMethod.
func (n NoticeDeliveryMethod) IsValid() bool {
	for _, candidate := range validNoticeDeliveryMethods {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNoticeDeliveryMethod converts raw input into a NoticeDeliveryMethod.
func ParseNoticeDeliveryMethod(value string) (NoticeDeliveryMethod, error) {
	for _, candidate := range validNoticeDeliveryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notice delivery method %q", value)
}

// ContactMethod maps to the contact_method enum.
type ContactMethod string

const (
	ContactPhone  ContactMethod = "phone"
	ContactEmail  ContactMethod = "email"
	ContactSMS    ContactMethod = "sms"
	ContactVisit  ContactMethod = "visit"
	ContactLetter ContactMethod = "letter"
)

var validContactMethods = []ContactMethod{
	ContactPhone,
	ContactEmail,
	ContactSMS,
	ContactVisit,
	ContactLetter,
}

// IsValid reports whether the value is a known ContactMethod.
func (c ContactMethod) IsValid() bool {
	for _, candidate := range validContactMethods {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseContactMethod converts raw input into a ContactMethod.
func ParseContactMethod(value string) (ContactMethod, error) {
	for _, candidate := range validContactMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contact method %q", value)
}

// ContactOutcome records how a client contact attempt ended.
type ContactOutcome string

const (
	OutcomeSuccessful        ContactOutcome = "successful"
	OutcomeNoAnswer          ContactOutcome = "no_answer"
	OutcomeRefused           ContactOutcome = "refused"
	OutcomePartialCommitment ContactOutcome = "partial_commitment"
	OutcomeVoicemail         ContactOutcome = "voicemail"
	OutcomePromiseToPay      ContactOutcome = "promise_to_pay"
	OutcomeOther             ContactOutcome = "other"
)

var validContactOutcomes = []ContactOutcome{
	OutcomeSuccessful,
	OutcomeNoAnswer,
	OutcomeRefused,
	OutcomePartialCommitment,
	OutcomeVoicemail,
	OutcomePromiseToPay,
	OutcomeOther,
}

// IsValid reports whether the value is a known ContactOutcome.
func (c ContactOutcome) IsValid() bool {
	for _, candidate := range validContactOutcomes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseContactOutcome converts raw input into a ContactOutcome.
func ParseContactOutcome(value string) (ContactOutcome, error) {
	for _, candidate := range validContactOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contact outcome %q", value)
}

// RecoveryResult records the outcome of a physical recovery attempt.
type RecoveryResult string

const (
	RecoverySuccessful      RecoveryResult = "successful"
	RecoveryVehicleNotFound RecoveryResult = "vehicle_not_found"
	RecoveryAccessDenied    RecoveryResult = "access_denied"
	RecoveryConfrontation   RecoveryResult = "confrontation"
	RecoveryPoliceCalled    RecoveryResult = "police_called"
	RecoveryPostponed       RecoveryResult = "postponed"
	RecoveryOther           RecoveryResult = "other"
)

var validRecoveryResults = []RecoveryResult{
	RecoverySuccessful,
	RecoveryVehicleNotFound,
	RecoveryAccessDenied,
	RecoveryConfrontation,
	RecoveryPoliceCalled,
	RecoveryPostponed,
	RecoveryOther,
}

// IsValid reports whether the value is a known RecoveryResult.
func (r RecoveryResult) IsValid() bool {
	for _, candidate := range validRecoveryResults {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecoveryResult converts raw input into a RecoveryResult.
func ParseRecoveryResult(value string) (RecoveryResult, error) {
	for _, candidate := range validRecoveryResults {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recovery result %q", value)
}

// RepoExpenseType categorizes costs booked against a repossession case.
type RepoExpenseType string

const (
	RepoExpenseRecovery      RepoExpenseType = "recovery"
	RepoExpenseTowing        RepoExpenseType = "towing"
	RepoExpenseStorage       RepoExpenseType = "storage"
	RepoExpenseLegal         RepoExpenseType = "legal"
	RepoExpenseCourt         RepoExpenseType = "court"
	RepoExpenseTransport     RepoExpenseType = "transport"
	RepoExpenseDocumentation RepoExpenseType = "documentation"
	RepoExpenseOther         RepoExpenseType = "other"
)

var validRepoExpenseTypes = []RepoExpenseType{
	RepoExpenseRecovery,
	RepoExpenseTowing,
	RepoExpenseStorage,
	RepoExpenseLegal,
	RepoExpenseCourt,
	RepoExpenseTransport,
	RepoExpenseDocumentation,
	RepoExpenseOther,
}

// IsValid reports whether the value is a known RepoExpenseType.
func (r RepoExpenseType) IsValid() bool {
	for _, candidate := range validRepoExpenseTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRepoExpenseType converts raw input into a RepoExpenseType.
func ParseRepoExpenseType(value string) (RepoExpenseType, error) {
	for _, candidate := range validRepoExpenseTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid repossession expense type %q", value)
}
