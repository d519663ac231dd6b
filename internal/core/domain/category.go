package domain

// Category classifies a failure into one of the fixed failure classes.
type Category string

const (
	CategoryUI             Category = "UI"
	CategoryPlatform       Category = "PLATFORM"
	CategoryDownload       Category = "DOWNLOAD"
	CategoryRepository     Category = "REPOSITORY"
	CategoryValidation     Category = "VALIDATION"
	CategoryAuthentication Category = "AUTHENTICATION"
	CategoryNetwork        Category = "NETWORK"
	CategoryFileSystem     Category = "FILE_SYSTEM"
	CategoryConfiguration  Category = "CONFIGURATION"
	CategoryPerformance    Category = "PERFORMANCE"
	CategoryUnknown        Category = "UNKNOWN"
)

// Categories returns the full fixed category set, UNKNOWN last.
func Categories() []Category {
	return []Category{
		CategoryUI,
		CategoryPlatform,
		CategoryDownload,
		CategoryRepository,
		CategoryValidation,
		CategoryAuthentication,
		CategoryNetwork,
		CategoryFileSystem,
		CategoryConfiguration,
		CategoryPerformance,
		CategoryUnknown,
	}
}

// Valid reports whether c is a member of the fixed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryUI, CategoryPlatform, CategoryDownload, CategoryRepository,
		CategoryValidation, CategoryAuthentication, CategoryNetwork,
		CategoryFileSystem, CategoryConfiguration, CategoryPerformance,
		CategoryUnknown:
		return true
	}
	return false
}

// Severity ranks how damaging a classified failure is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}
