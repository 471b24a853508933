package i18n

import "golang.org/x/text/message"

// Message keys. They double as the machine-readable "code" field of API
// error responses.
const (
	KeyValidationFailed     = "validation_failed"
	KeyInvalidPhone         = "invalid_phone"
	KeyInvalidPostalCode    = "invalid_postal_code"
	KeyInvalidOTPFormat     = "invalid_otp_format"
	KeyNotFound             = "not_found"
	KeyMethodNotAllowed     = "method_not_allowed"
	KeyUnsupportedMediaType = "unsupported_media_type"
	KeyUserNotFound         = "user_not_found"
	KeyNeighborhoodNotFound = "neighborhood_not_found"
	KeyUnauthorized         = "unauthorized"
	KeyTokenMissing         = "token_missing"
	KeyTokenInvalid         = "token_invalid"
	KeyTokenExpired         = "token_expired"
	KeyAccountInactive      = "account_inactive"
	KeyForbidden            = "forbidden"
	KeyPhoneNotVerified     = "phone_not_verified"
	KeyAddressNotVerified   = "address_not_verified"
	KeyInsufficientRole     = "insufficient_role"
	KeyConflict             = "conflict"
	KeyPhoneTaken           = "phone_taken"
	KeyNeighborhoodConflict = "neighborhood_conflict"
	KeyRateLimited          = "rate_limited"
	KeyOTPNoChallenge       = "otp_no_challenge"
	KeyOTPInvalidCode       = "otp_invalid_code"
	KeyOTPExpired           = "otp_expired"
	KeyOTPAttemptsExceeded  = "otp_attempts_exceeded"
	KeyInternal             = "internal_error"
)

var catalog = map[string][3]string{
	// key: {en, hi, mr}
	KeyValidationFailed:     {"Some fields are invalid.", "कुछ जानकारी सही नहीं है।", "काही माहिती चुकीची आहे."},
	KeyInvalidPhone:         {"Enter a valid 10-digit mobile number.", "मान्य 10 अंकों का मोबाइल नंबर दर्ज करें।", "वैध 10 अंकी मोबाइल नंबर टाका."},
	KeyInvalidPostalCode:    {"Enter a valid 6-digit PIN code.", "मान्य 6 अंकों का पिन कोड दर्ज करें।", "वैध 6 अंकी पिन कोड टाका."},
	KeyInvalidOTPFormat:     {"The code must be 6 digits.", "कोड 6 अंकों का होना चाहिए।", "कोड 6 अंकी असला पाहिजे."},
	KeyNotFound:             {"Not found.", "नहीं मिला।", "सापडले नाही."},
	KeyMethodNotAllowed:     {"This action is not supported here.", "यह क्रिया यहाँ उपलब्ध नहीं है।", "ही क्रिया येथे उपलब्ध नाही."},
	KeyUnsupportedMediaType: {"Requests must be sent as JSON.", "अनुरोध JSON के रूप में भेजा जाना चाहिए।", "विनंती JSON स्वरूपात पाठवली पाहिजे."},
	KeyUserNotFound:         {"No account found for this number.", "इस नंबर से कोई खाता नहीं मिला।", "या नंबरचे खाते सापडले नाही."},
	KeyNeighborhoodNotFound: {"Neighborhood not found.", "मोहल्ला नहीं मिला।", "परिसर सापडला नाही."},
	KeyUnauthorized:         {"Please sign in.", "कृपया साइन इन करें।", "कृपया साइन इन करा."},
	KeyTokenMissing:         {"Please sign in.", "कृपया साइन इन करें।", "कृपया साइन इन करा."},
	KeyTokenInvalid:         {"Your session is invalid. Please sign in again.", "आपका सत्र अमान्य है। कृपया फिर से साइन इन करें।", "तुमचे सत्र अवैध आहे. कृपया पुन्हा साइन इन करा."},
	KeyTokenExpired:         {"Your session has expired. Please sign in again.", "आपका सत्र समाप्त हो गया है। कृपया फिर से साइन इन करें।", "तुमचे सत्र संपले आहे. कृपया पुन्हा साइन इन करा."},
	KeyAccountInactive:      {"This account is not active.", "यह खाता सक्रिय नहीं है।", "हे खाते सक्रिय नाही."},
	KeyForbidden:            {"You do not have access to this.", "आपको इसकी अनुमति नहीं है।", "तुम्हाला याची परवानगी नाही."},
	KeyPhoneNotVerified:     {"Verify your phone number first.", "पहले अपना फ़ोन नंबर सत्यापित करें।", "आधी तुमचा फोन नंबर सत्यापित करा."},
	KeyAddressNotVerified:   {"Verify your address to join your neighborhood.", "अपने मोहल्ले से जुड़ने के लिए पता सत्यापित करें।", "तुमच्या परिसरात सामील होण्यासाठी पत्ता सत्यापित करा."},
	KeyInsufficientRole:     {"You do not have permission for this action.", "आपको यह करने की अनुमति नहीं है।", "तुम्हाला ही कृती करण्याची परवानगी नाही."},
	KeyConflict:             {"This already exists.", "यह पहले से मौजूद है।", "हे आधीच अस्तित्वात आहे."},
	KeyPhoneTaken:           {"This number is already registered.", "यह नंबर पहले से पंजीकृत है।", "हा नंबर आधीच नोंदणीकृत आहे."},
	KeyNeighborhoodConflict: {"Could not set up the neighborhood. Please try again.", "मोहल्ला नहीं बन सका। कृपया फिर से प्रयास करें।", "परिसर तयार होऊ शकला नाही. कृपया पुन्हा प्रयत्न करा."},
	KeyRateLimited:          {"Too many attempts. Please wait and try again.", "बहुत अधिक प्रयास। कृपया कुछ देर बाद प्रयास करें।", "खूप प्रयत्न झाले. कृपया थोड्या वेळाने प्रयत्न करा."},
	KeyOTPNoChallenge:       {"No active code. Request a new one.", "कोई सक्रिय कोड नहीं है। नया कोड मँगाएँ।", "कोणताही सक्रिय कोड नाही. नवीन कोड मागवा."},
	KeyOTPInvalidCode:       {"Incorrect code.", "गलत कोड।", "चुकीचा कोड."},
	KeyOTPExpired:           {"The code has expired. Request a new one.", "कोड की समय-सीमा समाप्त हो गई है। नया कोड मँगाएँ।", "कोडची मुदत संपली आहे. नवीन कोड मागवा."},
	KeyOTPAttemptsExceeded:  {"Too many wrong codes. Request a new one.", "बहुत अधिक गलत कोड। नया कोड मँगाएँ।", "खूप चुकीचे कोड. नवीन कोड मागवा."},
	KeyInternal:             {"Something went wrong.", "कुछ गलत हो गया।", "काहीतरी चुकले."},
}

func init() {
	for key, msgs := range catalog {
		for i, tag := range supported {
			_ = message.SetString(tag, key, msgs[i])
		}
	}
}
