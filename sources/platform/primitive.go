package platform

func StringPtr(s string) *string {
	return &s
}
