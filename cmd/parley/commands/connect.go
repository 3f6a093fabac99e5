package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"parley/internal/client"
	"parley/internal/domain"
)

// connect: join the chat room interactively.
func connectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connect to the server and chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat()
		},
	}
}

func runChat() error {
	stdin := bufio.NewReader(os.Stdin)

	c := client.New(client.Config{
		Addr:   server,
		KeyDir: home,
		Proof:  proof,
	}, client.Callbacks{
		Connected: func(u domain.Username) {
			fmt.Printf("Connected as %s. Type /help for commands.\n", u)
		},
		Message: func(msg domain.ChatMessage) {
			if msg.IsDirect() {
				fmt.Printf("[private] %s: %s\n", msg.From, msg.Content)
				return
			}
			fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Format("15:04:05"), msg.From, msg.Content)
		},
		ServerNotice: func(text string) {
			fmt.Printf("[server] %s\n", text)
		},
		Disconnected: func() {
			fmt.Println("Disconnected from server.")
		},
	})

	if err := c.Connect(); err != nil {
		return err
	}

	if err := authenticate(c, stdin); err != nil {
		return err
	}
	return chatLoop(c, stdin)
}

// authenticate drives the login/registration exchange until it reaches a
// terminal state.
func authenticate(c *client.Client, stdin *bufio.Reader) error {
	for {
		fmt.Println("\n1. Login with existing account")
		fmt.Println("2. Register new account")
		choice, err := prompt(stdin, "Choose option (1 or 2): ")
		if err != nil {
			return err
		}

		kind := domain.AuthLogin
		switch choice {
		case "1":
		case "2":
			kind = domain.AuthRegister
			fmt.Println("Password requirements: at least 8 characters, with")
			fmt.Println("uppercase, lowercase, a digit, and a special character.")
		default:
			fmt.Println("Invalid choice.")
			continue
		}

		username, err := prompt(stdin, "Username: ")
		if err != nil {
			return err
		}
		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		if kind == domain.AuthRegister {
			confirm, err := promptPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if confirm != password {
				fmt.Println("Passwords do not match.")
				continue
			}
		}

		outcome, err := c.SubmitAuthentication(kind, domain.Username(username), password)
		if err != nil {
			return err
		}
		switch {
		case outcome.Authenticated:
			return nil
		case outcome.Retryable:
			fmt.Printf("Authentication failed: %s\n", outcome.Reason)
		default:
			return fmt.Errorf("authentication failed: %s", outcome.Reason)
		}
	}
}

func chatLoop(c *client.Client, stdin *bufio.Reader) error {
	for {
		line, err := stdin.ReadString('\n')
		if err != nil {
			c.Disconnect()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if err := c.SendChatMessage(line); err != nil {
				fmt.Printf("send failed: %v\n", err)
			}
			continue
		}
		if quit := handleCommand(c, stdin, line); quit {
			return nil
		}
	}
}

func handleCommand(c *client.Client, stdin *bufio.Reader, line string) (quit bool) {
	switch cmd, rest, _ := strings.Cut(line, " "); strings.ToLower(cmd) {
	case "/quit":
		c.Disconnect()
		return true

	case "/msg":
		to, body, ok := strings.Cut(rest, " ")
		if !ok {
			fmt.Println("Usage: /msg <username> <message>")
			return false
		}
		if err := c.SendPrivateMessage(domain.Username(to), body); err != nil {
			fmt.Printf("private send failed: %v\n", err)
			return false
		}
		fmt.Printf("[to %s] %s\n", to, body)

	case "/password":
		oldPass, err := promptPassword("Current password: ")
		if err != nil {
			return false
		}
		newPass, err := promptPassword("New password: ")
		if err != nil {
			return false
		}
		confirm, err := promptPassword("Confirm new password: ")
		if err != nil {
			return false
		}
		if newPass != confirm {
			fmt.Println("New passwords do not match.")
			return false
		}
		if err := c.ChangePassword(oldPass, newPass); err != nil {
			fmt.Printf("password change failed: %v\n", err)
		}

	case "/info":
		if err := c.RequestUserInfo(); err != nil {
			fmt.Printf("request failed: %v\n", err)
		}

	case "/users":
		fmt.Printf("Known users: %s\n", strings.Join(c.KnownUsers(), ", "))

	case "/help":
		fmt.Println("/msg <user> <text>  send a private message")
		fmt.Println("/password           change your password")
		fmt.Println("/info               show your account information")
		fmt.Println("/users              list users with published keys")
		fmt.Println("/quit               leave the chat")

	default:
		fmt.Printf("Unknown command: %s (try /help)\n", line)
	}
	return false
}

func prompt(stdin *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo when stdin is a terminal.
func promptPassword(label string) (string, error) {
	fmt.Print(label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}
