// Package authz implementa el gate de autorización por llamada.
//
// Cada request protegido presenta un bearer token; el Gate lo manda a un
// Validator (servicio remoto de validación, o JWT local en desarrollo) y
// compara el rol devuelto contra la allow-list del punto de entrada.
//
// Reglas:
//
//   - Sin estado: no hay cache de decisiones ni reintentos.
//   - Fail-closed: cualquier error del validator es una denegación.
//   - El match de rol es exacto (distingue mayúsculas).
package authz
