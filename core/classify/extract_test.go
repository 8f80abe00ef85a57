package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const repositorySource = `using System;
using System.Data.SqlClient;

namespace Shop.DAL
{
    // class Ignored in a comment
    public interface IUserRepository { User Find(int id); }

    public class UserRepository : BaseRepository, IUserRepository
    {
        private AuditLog _audit;

        public User Find(int id)
        {
            var conn = new SqlConnection(ConfigurationManager.ConnectionStrings["ShopDb"].ConnectionString);
            var cmd = new SqlCommand("SELECT Id, Name FROM dbo.[Users] u JOIN Roles r ON r.Id = u.RoleId", conn);
            var mapper = new UserMapper();
            var cached = CacheStore.Get<UserDto>("users");
            return mapper.Map(cmd.ExecuteReader());
        }
    }
}
`

const vbSource = `Imports System.Data

Public Class OrderManager
    Inherits ManagerBase
    Implements IOrderManager

    Public Function Load(ByVal id As Integer) As OrderDto
        Dim repo As New OrderRepository()
        Return repo.Find(id)
    End Function
End Class

Friend Interface IAudit
End Interface
`

func TestExtractDeclarationsRegex(t *testing.T) {
	t.Run("csharp", func(t *testing.T) {
		decls := ExtractDeclarationsRegex("DAL/UserRepository.cs", repositorySource)
		assert.Equal(t, []string{"IUserRepository", "UserRepository"}, decls.Types)
		assert.Equal(t, []string{"IUserRepository"}, decls.Interfaces)
	})

	t.Run("vb", func(t *testing.T) {
		decls := ExtractDeclarationsRegex("BLL/OrderManager.vb", vbSource)
		assert.Equal(t, []string{"IAudit", "OrderManager"}, decls.Types)
		assert.Equal(t, []string{"IAudit"}, decls.Interfaces)
	})

	t.Run("markup declares nothing", func(t *testing.T) {
		decls := ExtractDeclarationsRegex("Web/Default.aspx", `<%@ Page Inherits="Shop.Web._Default" %>`)
		assert.Empty(t, decls.Types)
	})
}

func TestExtractReferences(t *testing.T) {
	t.Run("csharp", func(t *testing.T) {
		declared := []string{"IUserRepository", "UserRepository"}
		refs := ExtractReferences("DAL/UserRepository.cs", repositorySource, declared)
		assert.Contains(t, refs, "BaseRepository")
		assert.Contains(t, refs, "User")
		assert.Contains(t, refs, "UserMapper")
		assert.Contains(t, refs, "UserDto")
		assert.Contains(t, refs, "CacheStore")
		assert.Contains(t, refs, "AuditLog")
		assert.NotContains(t, refs, "UserRepository", "own declarations are excluded")
		assert.NotContains(t, refs, "SqlConnection", "framework names are excluded")
		assert.NotContains(t, refs, "Ignored", "comments are ignored")
		assert.NotContains(t, refs, "Users", "string contents are ignored")
	})

	t.Run("vb", func(t *testing.T) {
		refs := ExtractReferences("BLL/OrderManager.vb", vbSource, []string{"OrderManager", "IAudit"})
		assert.Contains(t, refs, "ManagerBase")
		assert.Contains(t, refs, "IOrderManager")
		assert.Contains(t, refs, "OrderDto")
		assert.Contains(t, refs, "OrderRepository")
		assert.NotContains(t, refs, "Integer")
	})

	t.Run("markup references code-behind class", func(t *testing.T) {
		refs := ExtractReferences("Web/Default.aspx", `<%@ Page Language="C#" Inherits="Shop.Web._Default" %>`, nil)
		assert.Equal(t, []string{"_Default"}, refs)
	})
}

func TestExtractResources(t *testing.T) {
	res := ExtractResources(repositorySource)
	assert.Equal(t, []string{"conn:shopdb", "table:roles", "table:users"}, res)

	proc := `var cmd = new SqlCommand("usp_GetOrders", conn);
cmd.CommandType = CommandType.StoredProcedure;
var other = "EXEC [dbo].[usp_Audit] @id";`
	assert.Equal(t, []string{"proc:usp_audit", "proc:usp_getorders"}, ExtractResources(proc))

	assert.Empty(t, ExtractResources("no resources here"))
}

func TestLanguageOf(t *testing.T) {
	assert.Equal(t, LangCSharp, LanguageOf("a/B.CS"))
	assert.Equal(t, LangVB, LanguageOf("a/B.vb"))
	assert.Equal(t, LangMarkup, LanguageOf("a/B.aspx"))
}

func TestStructuralParsingFallsBack(t *testing.T) {
	ctx := context.Background()
	s, err := NewScanner(nil, nil, 1, 0, 0)
	require.NoError(t, err)

	// Broken syntax always falls back to the pattern scanner.
	c := s.ClassifyContent(ctx, "DAL/Broken.cs", "public class Broken : { interface")
	assert.Contains(t, c.Types, "Broken")

	c = s.ClassifyContent(ctx, "DAL/UserRepository.cs", repositorySource)
	assert.Equal(t, []string{"IUserRepository", "UserRepository"}, c.Types)
	assert.Equal(t, []string{"IUserRepository"}, c.Interfaces)
}
