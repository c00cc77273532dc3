// Package region implements the delivery gate: the store ships within a
// single state, and only to pincodes on the allowlist below. A serviceable
// pincode deterministically resolves the city, which overwrites whatever the
// customer typed.
package region

// The only supported delivery region.
const (
	State   = "Odisha"
	Country = "India"
)

// ErrMessage is the inline message shown for an unserviceable pincode.
const ErrMessage = "Sorry, we do not deliver to this pincode yet"

var cityByPincode = map[string]string{
	"751001": "Bhubaneswar",
	"751002": "Bhubaneswar",
	"751003": "Bhubaneswar",
	"751004": "Bhubaneswar",
	"751005": "Bhubaneswar",
	"751006": "Bhubaneswar",
	"751007": "Bhubaneswar",
	"751008": "Bhubaneswar",
	"751009": "Bhubaneswar",
	"751010": "Bhubaneswar",
	"751011": "Bhubaneswar",
	"751012": "Bhubaneswar",
	"751013": "Bhubaneswar",
	"751014": "Bhubaneswar",
	"751015": "Bhubaneswar",
	"751016": "Bhubaneswar",
	"751017": "Bhubaneswar",
	"751018": "Bhubaneswar",
	"751019": "Bhubaneswar",
	"751020": "Bhubaneswar",
	"751021": "Bhubaneswar",
	"751022": "Bhubaneswar",
	"751023": "Bhubaneswar",
	"751024": "Bhubaneswar",
	"751030": "Bhubaneswar",
	"753001": "Cuttack",
	"753002": "Cuttack",
	"753003": "Cuttack",
	"753004": "Cuttack",
	"753008": "Cuttack",
	"753009": "Cuttack",
	"753010": "Cuttack",
	"753011": "Cuttack",
	"753012": "Cuttack",
	"753014": "Cuttack",
	"752050": "Jatni",
	"752054": "Khordha",
	"752055": "Khordha",
}

// CityForPincode resolves the deliverable city for a pincode. ok is false
// when the pincode is outside the serviceable region.
func CityForPincode(pincode string) (city string, ok bool) {
	city, ok = cityByPincode[pincode]
	return city, ok
}

// Serviceable reports whether the store delivers to the pincode.
func Serviceable(pincode string) bool {
	_, ok := cityByPincode[pincode]
	return ok
}
