// managerctl es el cliente de línea de comandos para la API de encargados.
// Usa la superficie /directives, así que el token debe tener un rol directivo.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/inventary/manager-service/internal/authz"
)

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func newRootCmd(out io.Writer) *cobra.Command {
	cl := &client{
		BaseURL:    envOr("MANAGER_API_URL", "http://localhost:8085"),
		APIVersion: envOr("MANAGER_API_VERSION", "v1"),
		Token:      envOr("MANAGER_TOKEN", ""),
		OutFormat:  envOr("MANAGER_OUT", "text"),
		HTTP:       &http.Client{Timeout: 30 * time.Second},
		Out:        out,
	}

	root := &cobra.Command{
		Use:           "managerctl",
		Short:         "CLI para el microservicio de encargados",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&cl.BaseURL, "api-url", cl.BaseURL, "URL base del servicio (env MANAGER_API_URL)")
	root.PersistentFlags().StringVar(&cl.APIVersion, "api-version", cl.APIVersion, "Versión de la API (env MANAGER_API_VERSION)")
	root.PersistentFlags().StringVar(&cl.Token, "token", cl.Token, "Bearer token (env MANAGER_TOKEN)")
	root.PersistentFlags().StringVar(&cl.OutFormat, "out", cl.OutFormat, "Formato de salida: json|text")

	requireToken := func(cmd *cobra.Command, args []string) error {
		if cl.Token == "" {
			return fmt.Errorf("falta token (flag --token o env MANAGER_TOKEN)")
		}
		return nil
	}

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Consulta /readyz",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("ping", http.MethodGet, "/readyz", nil)
		},
	}

	var inactive bool
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "Lista encargados activos (o inactivos con --inactive)",
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			rel := "/actives"
			if inactive {
				rel = "/inactives"
			}
			return cl.call("list", http.MethodGet, cl.managerPath(rel), nil)
		},
	}
	listCmd.Flags().BoolVar(&inactive, "inactive", false, "Listar inactivos")

	var byDocument, byEmail string
	getCmd := &cobra.Command{
		Use:     "get [id]",
		Short:   "Busca un encargado por id, --document o --email",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(args) == 1:
				return cl.call("get", http.MethodGet, cl.managerPath("/"+url.PathEscape(args[0])), nil)
			case byDocument != "":
				return cl.call("get", http.MethodGet, cl.managerPath("/document/"+url.PathEscape(byDocument)), nil)
			case byEmail != "":
				return cl.call("get", http.MethodGet, cl.managerPath("/email/"+url.PathEscape(byEmail)), nil)
			default:
				return fmt.Errorf("indicar id, --document o --email")
			}
		},
	}
	getCmd.Flags().StringVar(&byDocument, "document", "", "Número de documento")
	getCmd.Flags().StringVar(&byEmail, "email", "", "Email")

	var profile struct {
		FirstName      string `json:"firstName,omitempty"`
		LastName       string `json:"lastName,omitempty"`
		DocumentType   string `json:"documentType,omitempty"`
		DocumentNumber string `json:"documentNumber,omitempty"`
		Gender         string `json:"gender,omitempty"`
		Address        string `json:"address,omitempty"`
		BirthPlace     string `json:"birthPlace,omitempty"`
		Email          string `json:"email,omitempty"`
		Role           string `json:"role,omitempty"`
	}
	createCmd := &cobra.Command{
		Use:     "create",
		Short:   "Da de alta un encargado (la clave inicial es el documento)",
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			if profile.Email == "" || profile.DocumentNumber == "" || profile.Role == "" {
				return fmt.Errorf("--email, --document y --role son requeridos")
			}
			b, _ := json.Marshal(profile)
			return cl.call("create", http.MethodPost, cl.managerPath("/create"), b)
		},
	}
	f := createCmd.Flags()
	f.StringVar(&profile.FirstName, "first-name", "", "Nombre")
	f.StringVar(&profile.LastName, "last-name", "", "Apellido")
	f.StringVar(&profile.DocumentType, "document-type", "", "Tipo de documento")
	f.StringVar(&profile.DocumentNumber, "document", "", "Número de documento")
	f.StringVar(&profile.Gender, "gender", "", "Género")
	f.StringVar(&profile.Address, "address", "", "Dirección")
	f.StringVar(&profile.BirthPlace, "birth-place", "", "Lugar de nacimiento")
	f.StringVar(&profile.Email, "email", "", "Email")
	f.StringVar(&profile.Role, "role", "", "Rol (DIRECTOR, SECRETARIO, INVENTARIO, ...)")

	deactivateCmd := &cobra.Command{
		Use:     "deactivate <id>",
		Short:   "Desactiva un encargado (baja lógica)",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("deactivate", http.MethodDelete, cl.managerPath("/delete/"+url.PathEscape(args[0])), nil)
		},
	}

	reactivateCmd := &cobra.Command{
		Use:     "reactivate <id>",
		Short:   "Reactiva un encargado",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("reactivate", http.MethodPut, cl.managerPath("/reactivate/"+url.PathEscape(args[0])), nil)
		},
	}

	setPasswordCmd := &cobra.Command{
		Use:     "set-password <id> <password>",
		Short:   "Rota la credencial de un encargado",
		Args:    cobra.ExactArgs(2),
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _ := json.Marshal(map[string]string{"password": args[1]})
			return cl.call("set-password", http.MethodPatch, cl.managerPath("/updatePassword/"+url.PathEscape(args[0])), b)
		},
	}

	var tokenSecret, tokenRole, tokenSubject string
	var tokenTTL time.Duration
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Firma un token de desarrollo (servicio con authz.mode=jwt)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokenRole == "" {
				return fmt.Errorf("--role es requerido")
			}
			tok, err := authz.IssueDevToken([]byte(tokenSecret), tokenSubject, tokenRole, tokenTTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, tok)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", os.Getenv("MANAGER_AUTHZ_JWT_SECRET"), "Secreto HS256 (env MANAGER_AUTHZ_JWT_SECRET)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "", "Rol a incluir en el claim role")
	tokenCmd.Flags().StringVar(&tokenSubject, "sub", "managerctl", "Subject del token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Vigencia del token")

	root.AddCommand(pingCmd, listCmd, getCmd, createCmd, deactivateCmd, reactivateCmd, setPasswordCmd, tokenCmd)
	return root
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
