package user

import (
	"bufio"
	"bytes"
	"compress/gzip"
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/kaithabhanuteja/StudentManagement/core"
)

//go:embed assets/common-passwords.txt.gz
var commonPasswordsGz []byte

var (
	usernameCharsTag   = "username_chars"
	usernameCharsText  = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	usernameCharsRegex = regexp.MustCompile(`^[\w.@+-]+$`)

	eqFieldTag  = "eqfield"
	eqFieldText = "The two password fields did not match."

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("This password is too short. It must contain at least %d characters.", pwdMinLen)

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "This password is entirely numeric."

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "The password is too similar to the username or email."

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = "This password is too common."
	commonPasswords = loadCommonPasswords()
)

func registerValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(usernameCharsTag, usernameCharsValidation)
	core.RegisterCustomTranslation(validate, translator, usernameCharsTag, usernameCharsText)
	core.RegisterCustomTranslation(validate, translator, eqFieldTag, eqFieldText, true)

	validate.RegisterStructValidation(userStructValidation, NewUser{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(validate, translator, pwdNoCommonTag, pwdNoCommonText)
}

func loadCommonPasswords() []string {
	pwds := make([]string, 0, 256)
	gzRdr, err := gzip.NewReader(bytes.NewReader(commonPasswordsGz))
	if err != nil {
		return pwds
	}
	//goland:noinspection GoUnhandledErrorResult
	defer gzRdr.Close()

	scanner := bufio.NewScanner(gzRdr)
	for scanner.Scan() {
		if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
			pwds = append(pwds, strings.ToLower(pwd))
		}
	}
	sort.Strings(pwds)
	return pwds
}

// Custom Validators

func usernameCharsValidation(fl validator.FieldLevel) bool {
	return usernameCharsRegex.MatchString(fl.Field().String())
}

// userStructValidation does struct level validation on NewUser.
func userStructValidation(sl validator.StructLevel) {
	if usr, ok := sl.Current().Interface().(NewUser); ok {
		if tag := validatePassword(usr.Password, usr.Username, usr.Email); tag != "" {
			sl.ReportError(usr.Password, "password1", "Password", tag, "")
		}
	}
}

// validatePassword applies the password policy to provided password and returns the tag of the first rule broken:
// - minLen: 8
// - no user attrs similarity
// - no common password
// - not all numeric
func validatePassword(pwd, uname, email string) string {
	if pwd == "" {
		return "" // reported by `required`
	}

	// - minLen: 8
	if len([]rune(pwd)) < pwdMinLen {
		return pwdMinLenTag
	}

	// - no user attrs similarity
	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(strings.ToLower(pass), ""), strings.Split(strings.ToLower(usrAttr), "")).QuickRatio()
	}
	emailLocal := email
	if i := strings.Index(email, "@"); i > 0 {
		emailLocal = email[:i]
	}
	if getRatio(pwd, uname) >= pwdMaxSim ||
		getRatio(pwd, email) >= pwdMaxSim ||
		getRatio(pwd, emailLocal) >= pwdMaxSim {
		return pwdAttrSimTag
	}

	// - no common passwords
	lpwd := strings.ToLower(pwd)
	if idx := sort.SearchStrings(commonPasswords, lpwd); idx < len(commonPasswords) && commonPasswords[idx] == lpwd {
		return pwdNoCommonTag
	}

	// - not all numeric
	allNum := true
	for _, char := range pwd {
		if !unicode.IsDigit(char) {
			allNum = false
			break
		}
	}
	if allNum {
		return pwdNotAllNumTag
	}
	return ""
}
