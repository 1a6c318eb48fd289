package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"text/template"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

type client struct {
	baseURL    string
	token      string
	admin      bool
	httpClient *http.Client
}

type subscriptionResp struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	EntityType          string `json:"entityType"`
	EventType           string `json:"eventType"`
	TargetURL           string `json:"targetUrl"`
	Active              bool   `json:"active"`
	TriggerCount        int64  `json:"triggerCount"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
}

type subscriptionListResp struct {
	Subscriptions []subscriptionResp `json:"subscriptions"`
	Count         int                `json:"count"`
}

type deliveryResp struct {
	ID             string  `json:"id"`
	SubscriptionID string  `json:"subscriptionId"`
	Status         string  `json:"status"`
	HTTPStatus     *int    `json:"httpStatus"`
	ErrorMessage   *string `json:"errorMessage"`
	Attempts       int     `json:"attempts"`
	CreatedAt      string  `json:"createdAt"`
	Payload        struct {
		Event string `json:"event"`
	} `json:"payload"`
}

type deliveryListResp struct {
	Deliveries []deliveryResp `json:"deliveries"`
	Count      int            `json:"count"`
}

type statsResp struct {
	Owners              int64 `json:"owners"`
	Subscriptions       int64 `json:"subscriptions"`
	ActiveSubscriptions int64 `json:"activeSubscriptions"`
	DeliveryLogEntries  int64 `json:"deliveryLogEntries"`
}

type testOutcomeResp struct {
	Success      bool   `json:"success"`
	StatusCode   int    `json:"statusCode"`
	ErrorMessage string `json:"errorMessage"`
	Attempts     int    `json:"attempts"`
	DurationMs   int64  `json:"durationMs"`
}

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

const defaultIAMBaseURL = "https://iam.hookq.io/v1/accounts"

type profile struct {
	BaseURL    string     `yaml:"baseUrl"`
	IAMBaseURL string     `yaml:"iamBaseUrl"`
	IAMAPIKey  string     `yaml:"iamApiKey"`
	Token      string     `yaml:"token"`
	Auth       authConfig `yaml:"auth"`
	Admin      bool       `yaml:"admin"`
}

type cliConfig struct {
	CurrentProfile string             `yaml:"currentProfile"`
	Profiles       map[string]profile `yaml:"profiles"`
}

type authConfig struct {
	Login loginConfig `yaml:"login"`
}

type loginConfig struct {
	URLTemplate  string            `yaml:"urlTemplate"`
	Method       string            `yaml:"method"`
	Headers      map[string]string `yaml:"headers"`
	BodyTemplate string            `yaml:"bodyTemplate"`
	ContentType  string            `yaml:"contentType"`
	TokenPath    string            `yaml:"tokenPath"`
}

// conditionSpec mirrors the API condition shape for bulk import files.
type conditionSpec struct {
	Field    string `yaml:"field" json:"field"`
	Operator string `yaml:"operator" json:"operator"`
	Value    any    `yaml:"value,omitempty" json:"value,omitempty"`
	Logic    string `yaml:"logic,omitempty" json:"logic,omitempty"`
}

type subscriptionSpec struct {
	Name       string            `yaml:"name" json:"name"`
	EntityType string            `yaml:"entityType" json:"entityType"`
	EventType  string            `yaml:"eventType" json:"eventType"`
	TargetURL  string            `yaml:"targetUrl" json:"targetUrl"`
	Headers    map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Secret     string            `yaml:"secret,omitempty" json:"secret,omitempty"`
	Conditions []conditionSpec   `yaml:"conditions,omitempty" json:"conditions,omitempty"`
}

type importFile struct {
	Subscriptions []subscriptionSpec `yaml:"subscriptions"`
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

func (c *client) request(method, path string, body any) (int, []byte, error) {
	var buf *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.baseURL+path, buf)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.admin {
		req.Header.Set("X-Role", "ADMIN")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, nil
}

func main() {
	baseURL := getenv("HOOKQ_BASE_URL", "http://localhost:8080")
	token := getenv("HOOKQ_TOKEN", "")
	admin := getenvBool("HOOKQ_ADMIN", isLocalURL(baseURL))
	profileName := getenv("HOOKQ_PROFILE", "")
	iamBaseURL := getenv("HOOKQ_IAM_BASE_URL", defaultIAMBaseURL)
	iamAPIKey := getenv("HOOKQ_IAM_API_KEY", "")
	ui := newUI()

	root := &cobra.Command{
		Use:   "hookq",
		Short: "hookQ CLI",
		Long:  "hookQ CLI for webhook subscriptions, event triggers, and delivery logs.",
	}
	root.SetHelpTemplate(helpTemplate(ui))
	root.SilenceUsage = true

	root.PersistentFlags().StringVar(&baseURL, "base-url", baseURL, "Base URL for hookQ")
	root.PersistentFlags().StringVar(&iamBaseURL, "iam-base-url", iamBaseURL, "IAM base URL")
	root.PersistentFlags().StringVar(&iamAPIKey, "iam-api-key", iamAPIKey, "IAM API key")
	root.PersistentFlags().StringVar(&token, "token", token, "Bearer token")
	root.PersistentFlags().BoolVar(&admin, "admin", admin, "Send X-Role: ADMIN (dev only)")
	root.PersistentFlags().StringVar(&profileName, "profile", profileName, "Config profile")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, _, _ := loadConfig()
		active := resolveProfileName(profileName, cfg)
		prof := cfg.Profiles[active]

		flags := cmd.Flags()
		if !flags.Changed("base-url") {
			if v := strings.TrimSpace(os.Getenv("HOOKQ_BASE_URL")); v != "" {
				baseURL = v
			} else if prof.BaseURL != "" {
				baseURL = prof.BaseURL
			}
		}
		if !flags.Changed("iam-base-url") {
			if v := strings.TrimSpace(os.Getenv("HOOKQ_IAM_BASE_URL")); v != "" {
				iamBaseURL = v
			} else if prof.IAMBaseURL != "" {
				iamBaseURL = prof.IAMBaseURL
			}
		}
		if !flags.Changed("iam-api-key") {
			if v := strings.TrimSpace(os.Getenv("HOOKQ_IAM_API_KEY")); v != "" {
				iamAPIKey = v
			} else if prof.IAMAPIKey != "" {
				iamAPIKey = prof.IAMAPIKey
			}
		}
		if prof.Auth.Login.URLTemplate == "" {
			prof.Auth.Login = defaultLoginConfig(prof.IAMBaseURL, prof.IAMAPIKey)
		}
		if !flags.Changed("token") {
			if v := strings.TrimSpace(os.Getenv("HOOKQ_TOKEN")); v != "" {
				token = v
			} else if prof.Token != "" {
				token = prof.Token
			}
		}
		if !flags.Changed("admin") {
			if v := strings.TrimSpace(os.Getenv("HOOKQ_ADMIN")); v != "" {
				admin = getenvBool("HOOKQ_ADMIN", admin)
			} else if prof.Admin {
				admin = true
			} else if isLocalURL(baseURL) {
				admin = true
			}
		}
		if !flags.Changed("profile") && profileName == "" && active != "" {
			profileName = active
		}
		return nil
	}

	root.AddCommand(initCmd(&profileName, &iamBaseURL, &iamAPIKey, ui))
	root.AddCommand(authCmd(&profileName, &iamBaseURL, &iamAPIKey, ui))
	root.AddCommand(subscriptionCmd(&baseURL, &token, &admin, ui))
	root.AddCommand(triggerCmd(&baseURL, &token, &admin, ui))
	root.AddCommand(deliveriesCmd(&baseURL, &token, &admin, ui))
	root.AddCommand(statsCmd(&baseURL, &token, &admin, ui))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

func initCmd(profileName *string, iamBaseURL *string, iamAPIKey *string, ui *ui) *cobra.Command {
	var (
		baseURL  string
		iamURL   string
		iamKey   string
		token    string
		admin    bool
		noPrompt bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize CLI config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]

			if baseURL == "" {
				baseURL = prof.BaseURL
			}
			if baseURL == "" {
				baseURL = "http://localhost:8080"
			}
			if iamURL == "" {
				iamURL = prof.IAMBaseURL
			}
			if iamURL == "" {
				iamURL = *iamBaseURL
			}
			if iamURL == "" {
				iamURL = defaultIAMBaseURL
			}
			if iamKey == "" {
				iamKey = prof.IAMAPIKey
			}
			if iamKey == "" {
				iamKey = *iamAPIKey
			}

			if !noPrompt {
				reader := bufio.NewReader(os.Stdin)
				baseURL = prompt(reader, "Base URL", baseURL)
				iamURL = prompt(reader, "IAM Base URL", iamURL)
				iamKey = prompt(reader, "IAM API Key", iamKey)
				if token == "" {
					token = prompt(reader, "Token (optional)", "")
				}
			}

			prof.BaseURL = strings.TrimSpace(baseURL)
			prof.IAMBaseURL = strings.TrimSpace(iamURL)
			prof.IAMAPIKey = strings.TrimSpace(iamKey)
			if prof.Auth.Login.URLTemplate == "" {
				prof.Auth.Login = defaultLoginConfig(prof.IAMBaseURL, prof.IAMAPIKey)
			}
			if token != "" {
				prof.Token = strings.TrimSpace(token)
			}
			if cmd.Flags().Changed("admin") {
				prof.Admin = admin
			}

			if cfg.Profiles == nil {
				cfg.Profiles = map[string]profile{}
			}
			cfg.Profiles[active] = prof
			if cfg.CurrentProfile == "" || *profileName != "" {
				cfg.CurrentProfile = active
			}

			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Initialized profile '%s' at %s\n", ui.ok("[OK]"), active, cfgPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL for hookQ")
	cmd.Flags().StringVar(&iamURL, "iam-base-url", "", "IAM base URL")
	cmd.Flags().StringVar(&iamKey, "iam-api-key", "", "IAM API key")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token")
	cmd.Flags().BoolVar(&admin, "admin", false, "Set admin for profile")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Disable interactive prompts")
	return cmd
}

func authCmd(profileName *string, iamBaseURL *string, iamAPIKey *string, ui *ui) *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored credentials",
	}

	var (
		setToken string
		admin    bool
	)

	set := &cobra.Command{
		Use:   "set",
		Short: "Store token in config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if setToken == "" && !cmd.Flags().Changed("admin") {
				return errors.New("provide --token (or --admin)")
			}
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]
			if setToken != "" {
				prof.Token = strings.TrimSpace(setToken)
			}
			if cmd.Flags().Changed("admin") {
				prof.Admin = admin
			}
			if cfg.Profiles == nil {
				cfg.Profiles = map[string]profile{}
			}
			cfg.Profiles[active] = prof
			if cfg.CurrentProfile == "" || *profileName != "" {
				cfg.CurrentProfile = active
			}
			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Credentials updated for '%s'\n", ui.ok("[OK]"), active)
			return nil
		},
	}
	set.Flags().StringVar(&setToken, "token", "", "Bearer token")
	set.Flags().BoolVar(&admin, "admin", false, "Set admin for profile")

	var (
		loginEmail       string
		loginPassword    string
		loginURL         string
		loginMethod      string
		loginCT          string
		loginPayload     string
		loginPayloadFile string
		loginTokenPath   string
		saveLoginConfig  bool
		headerKVs        []string
		noPrompt         bool
	)
	login := &cobra.Command{
		Use:   "login",
		Short: "Login via IAM and store token",
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(loginEmail)
			password := strings.TrimSpace(loginPassword)
			if email == "" && !noPrompt {
				reader := bufio.NewReader(os.Stdin)
				email = prompt(reader, "Email", "")
			}
			if password == "" && !noPrompt {
				p, err := promptSecret("Password")
				if err != nil {
					return err
				}
				password = p
			}
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}

			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			if *profileName == "" {
				active = profileFromEmail(email)
			}
			prof := cfg.Profiles[active]
			if prof.IAMBaseURL == "" {
				prof.IAMBaseURL = *iamBaseURL
			}
			if prof.IAMAPIKey == "" {
				prof.IAMAPIKey = *iamAPIKey
			}

			loginCfg := prof.Auth.Login
			if loginCfg.URLTemplate == "" {
				loginCfg = defaultLoginConfig(prof.IAMBaseURL, prof.IAMAPIKey)
			}
			if strings.TrimSpace(loginURL) != "" {
				loginCfg.URLTemplate = loginURL
			}
			if strings.TrimSpace(loginMethod) != "" {
				loginCfg.Method = loginMethod
			}
			if strings.TrimSpace(loginCT) != "" {
				loginCfg.ContentType = loginCT
			}
			if strings.TrimSpace(loginTokenPath) != "" {
				loginCfg.TokenPath = loginTokenPath
			}
			if strings.TrimSpace(loginPayload) != "" {
				loginCfg.BodyTemplate = loginPayload
			}
			if strings.TrimSpace(loginPayloadFile) != "" {
				data, err := os.ReadFile(loginPayloadFile)
				if err != nil {
					return err
				}
				loginCfg.BodyTemplate = string(data)
			}
			if len(headerKVs) > 0 {
				if loginCfg.Headers == nil {
					loginCfg.Headers = map[string]string{}
				}
				for _, kv := range headerKVs {
					k, v, ok := strings.Cut(kv, ":")
					if !ok {
						return fmt.Errorf("invalid header: %s (expected Key: Value)", kv)
					}
					loginCfg.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
				}
			}

			token, err := iamLoginGeneric(loginCfg, prof.IAMBaseURL, prof.IAMAPIKey, email, password)
			if err != nil {
				return err
			}
			prof.Token = token

			if cfg.Profiles == nil {
				cfg.Profiles = map[string]profile{}
			}
			if saveLoginConfig {
				prof.Auth.Login = loginCfg
			}
			cfg.Profiles[active] = prof
			cfg.CurrentProfile = active
			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Logged in. Token stored for '%s'\n", ui.ok("[OK]"), active)
			return nil
		},
	}
	login.Flags().StringVar(&loginEmail, "email", "", "Email for login")
	login.Flags().StringVar(&loginPassword, "password", "", "Password for login")
	login.Flags().StringVar(&loginURL, "login-url", "", "Override IAM login URL (template allowed)")
	login.Flags().StringVar(&loginMethod, "method", "", "HTTP method (default POST)")
	login.Flags().StringVar(&loginCT, "content-type", "", "Content-Type override")
	login.Flags().StringVar(&loginPayload, "payload", "", "Login payload (template allowed)")
	login.Flags().StringVar(&loginPayloadFile, "payload-file", "", "Login payload file (template allowed)")
	login.Flags().StringVar(&loginTokenPath, "token-path", "", "JSON token path (default idToken)")
	login.Flags().StringArrayVar(&headerKVs, "header", nil, "Extra headers (Key: Value)")
	login.Flags().BoolVar(&saveLoginConfig, "save", true, "Save login config for this profile")
	login.Flags().BoolVar(&noPrompt, "no-prompt", false, "Disable interactive prompts")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show stored credentials (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]
			fmt.Printf("%s Profile: %s\n", ui.title("hookq"), active)
			fmt.Printf("%s Base URL: %s\n", ui.info("•"), emptyOr(prof.BaseURL, "<unset>"))
			fmt.Printf("%s IAM URL:  %s\n", ui.info("•"), emptyOr(prof.IAMBaseURL, "<unset>"))
			fmt.Printf("%s API Key:  %s\n", ui.info("•"), maskToken(prof.IAMAPIKey))
			fmt.Printf("%s Login URL: %s\n", ui.info("•"), emptyOr(prof.Auth.Login.URLTemplate, "<unset>"))
			fmt.Printf("%s Token Path: %s\n", ui.info("•"), emptyOr(prof.Auth.Login.TokenPath, "<unset>"))
			fmt.Printf("%s Token:    %s\n", ui.info("•"), maskToken(prof.Token))
			fmt.Printf("%s Admin:    %v\n", ui.info("•"), prof.Admin)
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Clear stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]
			prof.Token = ""
			cfg.Profiles[active] = prof
			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Token cleared for '%s'\n", ui.ok("[OK]"), active)
			return nil
		},
	}

	auth.AddCommand(login, set, show, clear)
	return auth
}

func subscriptionCmd(baseURL, token *string, admin *bool, ui *ui) *cobra.Command {
	sub := &cobra.Command{
		Use:     "subscription",
		Aliases: []string{"sub"},
		Short:   "Subscription operations",
	}

	var (
		name       string
		entity     string
		event      string
		target     string
		secret     string
		headerKVs  []string
		conditions string
	)

	create := &cobra.Command{
		Use:     "create",
		Short:   "Create a webhook subscription",
		Example: "hookq subscription create --name 'won deals' --entity deal --event stage_changed --url https://crm.example.com/hook --conditions '[{\"field\":\"stage\",\"operator\":\"equals\",\"value\":\"won\"}]'",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return errors.New("name is required")
			}
			if strings.TrimSpace(entity) == "" || strings.TrimSpace(event) == "" {
				return errors.New("entity and event are required")
			}
			if strings.TrimSpace(target) == "" {
				return errors.New("url is required")
			}
			if strings.TrimSpace(*token) == "" {
				return errors.New("token is required (run `hookq auth login` or set --token)")
			}

			body := map[string]any{
				"name":       name,
				"entityType": entity,
				"eventType":  event,
				"targetUrl":  target,
			}
			if secret != "" {
				body["secret"] = secret
			}
			if len(headerKVs) > 0 {
				headers, err := parseHeaderKVs(headerKVs)
				if err != nil {
					return err
				}
				body["headers"] = headers
			}
			if strings.TrimSpace(conditions) != "" {
				var conds []conditionSpec
				if err := json.Unmarshal([]byte(conditions), &conds); err != nil {
					return fmt.Errorf("invalid conditions JSON: %w", err)
				}
				body["conditions"] = conds
			}

			c := newClient(*baseURL, *token, *admin)
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Creating subscription..."
			spin.Start()
			status, resp, err := c.request("POST", "/v1/hookq/subscriptions", body)
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			var out subscriptionResp
			if err := json.Unmarshal(resp, &out); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			fmt.Printf("%s Subscription created: %s (%s.%s)\n", ui.ok("[OK]"), out.ID, out.EntityType, out.EventType)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "Subscription name")
	create.Flags().StringVar(&entity, "entity", "", "Entity type (contact|company|deal|task|activity)")
	create.Flags().StringVar(&event, "event", "", "Event type (created|updated|deleted|stage_changed|...)")
	create.Flags().StringVar(&target, "url", "", "Target webhook URL (https)")
	create.Flags().StringVar(&secret, "secret", "", "HMAC signing secret")
	create.Flags().StringArrayVar(&headerKVs, "header", nil, "Extra delivery headers (Key: Value)")
	create.Flags().StringVar(&conditions, "conditions", "", "Conditions as a JSON array")

	list := &cobra.Command{
		Use:   "list",
		Short: "List subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(*token) == "" {
				return errors.New("token is required (run `hookq auth login` or set --token)")
			}
			c := newClient(*baseURL, *token, *admin)
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Fetching subscriptions..."
			spin.Start()
			status, resp, err := c.request("GET", "/v1/hookq/subscriptions", nil)
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			var out subscriptionListResp
			if err := json.Unmarshal(resp, &out); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			if out.Count == 0 {
				fmt.Println(ui.dim("no subscriptions"))
				return nil
			}
			for _, s := range out.Subscriptions {
				state := ui.ok("active  ")
				if !s.Active {
					state = ui.err("disabled")
				}
				fmt.Printf("%s  %s  %s  %s  %s\n",
					state,
					ui.info(s.EntityType+"."+s.EventType),
					s.Name,
					ui.dim(fmt.Sprintf("triggers=%d failures=%d", s.TriggerCount, s.ConsecutiveFailures)),
					ui.dim("id="+s.ID),
				)
			}
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(*token) == "" {
				return errors.New("token is required (run `hookq auth login` or set --token)")
			}
			c := newClient(*baseURL, *token, *admin)
			status, resp, err := c.request("GET", "/v1/hookq/subscriptions/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			fmt.Println(string(resp))
			return nil
		},
	}

	enable := &cobra.Command{
		Use:   "enable <id>",
		Short: "Re-enable a subscription (resets its failure streak)",
		Args:  cobra.ExactArgs(1),
		RunE:  setActiveRunE(baseURL, token, admin, ui, true),
	}

	disable := &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable a subscription",
		Args:  cobra.ExactArgs(1),
		RunE:  setActiveRunE(baseURL, token, admin, ui, false),
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(*token) == "" {
				return errors.New("token is required (run `hookq auth login` or set --token)")
			}
			c := newClient(*baseURL, *token, *admin)
			status, resp, err := c.request("DELETE", "/v1/hookq/subscriptions/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			fmt.Printf("%s Subscription deleted\n", ui.ok("[OK]"))
			return nil
		},
	}

	var overrides string
	test := &cobra.Command{
		Use:     "test <id>",
		Short:   "Send a test delivery (single attempt, no log entry)",
		Example: "hookq subscription test 0b8c... --overrides '{\"stage\":\"won\"}'",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(*token) == "" {
				return errors.New("token is required (run `hookq auth login` or set --token)")
			}
			var body any
			if strings.TrimSpace(overrides) != "" {
				var data map[string]any
				if err := json.Unmarshal([]byte(overrides), &data); err != nil {
					return fmt.Errorf("invalid overrides JSON: %w", err)
				}
				body = map[string]any{"overrides": data}
			}
			c := newClient(*baseURL, *token, *admin)
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Sending test delivery..."
			spin.Start()
			status, resp, err := c.request("POST", "/v1/hookq/subscriptions/"+url.PathEscape(args[0])+"/test", body)
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			var out testOutcomeResp
			if err := json.Unmarshal(resp, &out); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			if out.Success {
				fmt.Printf("%s Delivered: HTTP %d in %dms\n", ui.ok("[OK]"), out.StatusCode, out.DurationMs)
				return nil
			}
			if out.StatusCode != 0 {
				fmt.Printf("%s Endpoint answered HTTP %d\n", ui.err("[FAIL]"), out.StatusCode)
			} else {
				fmt.Printf("%s Delivery error: %s\n", ui.err("[FAIL]"), out.ErrorMessage)
			}
			return nil
		},
	}
	test.Flags().StringVar(&overrides, "overrides", "", "Data overrides for the sample payload (JSON object)")

	var concurrency int
	imp := &cobra.Command{
		Use:     "import <file>",
		Short:   "Bulk-create subscriptions from a YAML file",
		Example: "hookq subscription import subscriptions.yaml --concurrency 4",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(*token) == "" {
				return errors.New("token is required (run `hookq auth login` or set --token)")
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var file importFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("invalid import file: %w", err)
			}
			if len(file.Subscriptions) == 0 {
				return errors.New("import file has no subscriptions")
			}
			if concurrency <= 0 {
				concurrency = 1
			}

			c := newClient(*baseURL, *token, *admin)
			bar := progressbar.NewOptions(len(file.Subscriptions),
				progressbar.OptionSetDescription("Importing subscriptions"),
				progressbar.OptionSetWidth(18),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			specs := make(chan subscriptionSpec)
			var mu sync.Mutex
			var failures []string
			created := 0

			var wg sync.WaitGroup
			for i := 0; i < concurrency; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for spec := range specs {
						status, resp, err := c.request("POST", "/v1/hookq/subscriptions", spec)
						mu.Lock()
						switch {
						case err != nil:
							failures = append(failures, fmt.Sprintf("%s: %v", spec.Name, err))
						case status >= 300:
							failures = append(failures, fmt.Sprintf("%s: (%d) %s", spec.Name, status, strings.TrimSpace(string(resp))))
						default:
							created++
						}
						mu.Unlock()
						_ = bar.Add(1)
					}
				}()
			}

		feed:
			for _, spec := range file.Subscriptions {
				select {
				case <-ctx.Done():
					break feed
				case specs <- spec:
				}
			}
			close(specs)
			wg.Wait()

			fmt.Printf("%s Imported %d/%d subscriptions\n", ui.ok("[OK]"), created, len(file.Subscriptions))
			for _, f := range failures {
				fmt.Printf("%s %s\n", ui.err("[FAIL]"), f)
			}
			if len(failures) > 0 {
				return fmt.Errorf("%d subscriptions failed", len(failures))
			}
			return nil
		},
	}
	imp.Flags().IntVar(&concurrency, "concurrency", 1, "Parallel create requests")

	sub.AddCommand(create, list, get, enable, disable, del, test, imp)
	return sub
}

func setActiveRunE(baseURL, token *string, admin *bool, ui *ui, active bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(*token) == "" {
			return errors.New("token is required (run `hookq auth login` or set --token)")
		}
		c := newClient(*baseURL, *token, *admin)
		status, resp, err := c.request("PATCH", "/v1/hookq/subscriptions/"+url.PathEscape(args[0]), map[string]any{"active": active})
		if err != nil {
			return err
		}
		if status >= 300 {
			return fmt.Errorf("error (%d): %s", status, string(resp))
		}
		verb := "enabled"
		if !active {
			verb = "disabled"
		}
		fmt.Printf("%s Subscription %s\n", ui.ok("[OK]"), verb)
		return nil
	}
}

func triggerCmd(baseURL, token *string, admin *bool, ui *ui) *cobra.Command {
	var (
		entity   string
		event    string
		entityID string
		data     string
		previous string
		changed  string
	)
	cmd := &cobra.Command{
		Use:     "trigger",
		Short:   "Trigger a CRM event",
		Example: "hookq trigger --entity deal --event stage_changed --id deal-7 --data '{\"stage\":\"won\"}'",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(entity) == "" || strings.TrimSpace(event) == "" {
				return errors.New("entity and event are required")
			}
			if strings.TrimSpace(entityID) == "" {
				return errors.New("id is required")
			}
			if strings.TrimSpace(*token) == "" {
				return errors.New("token is required (run `hookq auth login` or set --token)")
			}

			body := map[string]any{
				"entityType": entity,
				"eventType":  event,
				"entityId":   entityID,
			}
			if strings.TrimSpace(data) != "" {
				var obj map[string]any
				if err := json.Unmarshal([]byte(data), &obj); err != nil {
					return fmt.Errorf("invalid data JSON: %w", err)
				}
				body["data"] = obj
			}
			if strings.TrimSpace(previous) != "" {
				var obj map[string]any
				if err := json.Unmarshal([]byte(previous), &obj); err != nil {
					return fmt.Errorf("invalid previous JSON: %w", err)
				}
				body["previousData"] = obj
			}
			if fields := splitFields(changed); len(fields) > 0 {
				body["changedFields"] = fields
			}

			c := newClient(*baseURL, *token, *admin)
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Dispatching event..."
			spin.Start()
			status, resp, err := c.request("POST", "/v1/hookq/events", body)
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			fmt.Printf("%s Event accepted: %s.%s %s\n", ui.ok("[OK]"), entity, event, ui.dim("("+entityID+")"))
			return nil
		},
	}
	cmd.Flags().StringVar(&entity, "entity", "", "Entity type")
	cmd.Flags().StringVar(&event, "event", "", "Event type")
	cmd.Flags().StringVar(&entityID, "id", "", "Entity id")
	cmd.Flags().StringVar(&data, "data", "", "Current entity data (JSON object)")
	cmd.Flags().StringVar(&previous, "previous", "", "Previous entity data (JSON object)")
	cmd.Flags().StringVar(&changed, "changed", "", "Comma-separated changed field names")
	return cmd
}

func deliveriesCmd(baseURL, token *string, admin *bool, ui *ui) *cobra.Command {
	var (
		limit          int
		subscriptionID string
	)
	list := &cobra.Command{
		Use:     "list",
		Short:   "List recent deliveries (newest first)",
		Example: "hookq deliveries list --limit 20 --subscription 0b8c...",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(*token) == "" {
				return errors.New("token is required (run `hookq auth login` or set --token)")
			}
			q := url.Values{}
			if limit > 0 {
				q.Set("limit", fmt.Sprintf("%d", limit))
			}
			if strings.TrimSpace(subscriptionID) != "" {
				q.Set("subscriptionId", subscriptionID)
			}
			path := "/v1/hookq/deliveries"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			c := newClient(*baseURL, *token, *admin)
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Fetching deliveries..."
			spin.Start()
			status, resp, err := c.request("GET", path, nil)
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			var out deliveryListResp
			if err := json.Unmarshal(resp, &out); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			if out.Count == 0 {
				fmt.Println(ui.dim("no deliveries"))
				return nil
			}
			for _, d := range out.Deliveries {
				state := ui.ok("success")
				detail := ""
				if d.Status != "success" {
					state = ui.err("failed ")
					if d.ErrorMessage != nil {
						detail = ui.dim(" " + *d.ErrorMessage)
					}
				}
				httpStatus := "-"
				if d.HTTPStatus != nil {
					httpStatus = fmt.Sprintf("%d", *d.HTTPStatus)
				}
				fmt.Printf("%s  %s  http=%s attempts=%d  %s  %s%s\n",
					state,
					ui.info(d.Payload.Event),
					httpStatus,
					d.Attempts,
					ui.dim(d.CreatedAt),
					ui.dim("sub="+d.SubscriptionID),
					detail,
				)
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "Max entries to return")
	list.Flags().StringVar(&subscriptionID, "subscription", "", "Filter by subscription id")

	cmd := &cobra.Command{
		Use:   "deliveries",
		Short: "Delivery log operations",
	}
	cmd.AddCommand(list)
	return cmd
}

func statsCmd(baseURL, token *string, admin *bool, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dispatch overview (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(*token) == "" {
				return errors.New("token is required (run `hookq auth login` or set --token)")
			}
			c := newClient(*baseURL, *token, *admin)
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Fetching stats..."
			spin.Start()
			status, resp, err := c.request("GET", "/v1/hookq/admin/stats", nil)
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			var out statsResp
			if err := json.Unmarshal(resp, &out); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			fmt.Printf("%s: %d | %s: %d | %s: %d | %s: %d\n",
				ui.ok("SUBSCRIPTIONS"), out.Subscriptions,
				ui.info("ACTIVE"), out.ActiveSubscriptions,
				ui.warn("OWNERS"), out.Owners,
				ui.dim("LOG ENTRIES"), out.DeliveryLogEntries,
			)
			return nil
		},
	}
}

func newClient(baseURL, token string, admin bool) *client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		admin:      admin,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvBool(k string, def bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(k)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func isLocalURL(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host == "localhost" || host == "127.0.0.1"
}

func parseHeaderKVs(kvs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header: %s (expected Key: Value)", kv)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}

func splitFields(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func helpTemplate(ui *ui) string {
	title := ui.title("hookq")
	return fmt.Sprintf(`%s — CLI for hookQ

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Global Flags:
  {{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

Config:
  %s

Examples:
  hookq init
  hookq auth login --email you@company.com
  hookq subscription create --name 'won deals' --entity deal --event stage_changed --url https://crm.example.com/hook
  hookq trigger --entity deal --event stage_changed --id deal-7 --data '{"stage":"won"}'
  hookq deliveries list --limit 20
  hookq stats

`, title, configPath())
}

func configPath() string {
	if v := strings.TrimSpace(os.Getenv("HOOKQ_CONFIG_DIR")); v != "" {
		return filepath.Join(v, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".hookq", "config.yaml")
}

func defaultLoginConfig(iamBaseURL, apiKey string) loginConfig {
	base := strings.TrimRight(iamBaseURL, "/")
	if base == "" {
		base = defaultIAMBaseURL
	}
	return loginConfig{
		URLTemplate:  base + "/signInWithPassword?key={{apiKey}}",
		Method:       "POST",
		ContentType:  "application/json",
		TokenPath:    "idToken",
		BodyTemplate: `{"email":"{{email}}","password":"{{password}}"}`,
		Headers:      map[string]string{},
	}
}

func iamLoginGeneric(cfg loginConfig, iamBaseURL, apiKey, email, password string) (string, error) {
	if strings.TrimSpace(cfg.URLTemplate) == "" {
		cfg = defaultLoginConfig(iamBaseURL, apiKey)
	}
	if cfg.Method == "" {
		cfg.Method = "POST"
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "application/json"
	}
	if cfg.TokenPath == "" {
		cfg.TokenPath = "idToken"
	}

	vars := map[string]string{
		"email":      email,
		"password":   password,
		"apiKey":     apiKey,
		"iamBaseUrl": strings.TrimRight(iamBaseURL, "/"),
	}
	loginURL, err := renderTemplate(cfg.URLTemplate, vars)
	if err != nil {
		return "", err
	}
	bodyStr, err := renderTemplate(cfg.BodyTemplate, vars)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(cfg.Method, loginURL, bytes.NewReader([]byte(bodyStr)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", cfg.ContentType)
	for k, v := range cfg.Headers {
		if strings.TrimSpace(k) != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed (%d): %s", resp.StatusCode, string(out))
	}
	raw, _ := io.ReadAll(resp.Body)
	token, err := extractToken(raw, cfg.TokenPath)
	if err != nil {
		return "", err
	}
	return token, nil
}

func renderTemplate(tpl string, vars map[string]string) (string, error) {
	if strings.TrimSpace(tpl) == "" {
		return "", errors.New("payload template is empty")
	}
	funcs := template.FuncMap{}
	for k, v := range vars {
		val := v
		funcs[k] = func() string { return val }
	}
	t, err := template.New("tpl").Funcs(funcs).Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractToken(body []byte, path string) (string, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return "", fmt.Errorf("invalid JSON response")
	}
	curr := v
	for _, p := range strings.Split(path, ".") {
		if p == "" {
			continue
		}
		m, ok := curr.(map[string]any)
		if !ok {
			return "", fmt.Errorf("token path not found")
		}
		curr, ok = m[p]
		if !ok {
			return "", fmt.Errorf("token path not found")
		}
	}
	if s, ok := curr.(string); ok && strings.TrimSpace(s) != "" {
		return s, nil
	}
	return "", fmt.Errorf("token not found at path")
}

func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	b, err := termReadPassword()
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func termReadPassword() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		return []byte(strings.TrimSpace(line)), err
	}
	return term.ReadPassword(fd)
}

func loadConfig() (cliConfig, string, error) {
	path := configPath()
	var cfg cliConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cliConfig{Profiles: map[string]profile{}}, path, nil
		}
		return cfg, path, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, path, err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]profile{}
	}
	return cfg, path, nil
}

func saveConfig(cfg cliConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func resolveProfileName(flag string, cfg cliConfig) string {
	if strings.TrimSpace(flag) != "" {
		return strings.TrimSpace(flag)
	}
	if v := strings.TrimSpace(os.Getenv("HOOKQ_PROFILE")); v != "" {
		return v
	}
	if cfg.CurrentProfile != "" {
		return cfg.CurrentProfile
	}
	return "default"
}

func profileFromEmail(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	email = strings.ReplaceAll(email, "@", "_")
	email = strings.ReplaceAll(email, ".", "_")
	if email == "" {
		return "default"
	}
	return email
}

func prompt(r *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func maskToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "<unset>"
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "..." + v[len(v)-4:]
}

func emptyOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
