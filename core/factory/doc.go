// Package factory provides a small generic registry used to build pluggable
// collaborators (demand predictors, transfer suggesters, metrics sinks) from
// configuration blocks of the form {type, conf}.
package factory
