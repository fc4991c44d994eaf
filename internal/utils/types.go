package utils

func ToStringPtr(s string) *string {
	return &s
}
