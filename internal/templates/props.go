package templates

// BaseProps contains common properties shared across all pages
type BaseProps struct {
	CSRFToken string
}

// LoginPageProps contains properties for the login page
type LoginPageProps struct {
	BaseProps
	ReturnURL string
	Username  string
	Error     string
}

// HomePageProps contains properties for the landing page
type HomePageProps struct {
	BaseProps
	UserName string // empty when nobody is signed in
	Issuer   string
}
